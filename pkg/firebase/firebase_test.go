package firebase_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/waveline-app/backend/pkg/firebase"
)

func TestInitFirebase(t *testing.T) {
	t.Run("NoCredentialsDisablesGoogleSignIn", func(t *testing.T) {
		app, err := firebase.InitFirebase(context.Background(), "")

		assert.NoError(t, err)
		assert.NotNil(t, app)
		assert.False(t, app.Enabled())
		assert.Nil(t, app.AuthClient)
	})

	t.Run("ConfiguredButMissingFileErrors", func(t *testing.T) {
		app, err := firebase.InitFirebase(context.Background(), filepath.Join(t.TempDir(), "absent.json"))

		assert.Error(t, err)
		assert.Nil(t, app)
		assert.False(t, app.Enabled())
	})
}

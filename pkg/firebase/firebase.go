package firebase

import (
	"context"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// App holds the initialized Firebase app and auth client. Both are nil when
// Google sign-in is not configured.
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
}

// Enabled reports whether Google sign-in is available.
func (a *App) Enabled() bool {
	return a != nil && a.AuthClient != nil
}

// InitFirebase initializes the Firebase application and authentication
// client from a service-account credentials file. An empty path is not an
// error: the server boots with Google sign-in disabled and every other
// surface intact. A configured but unreadable path is fatal, since it means
// the operator expected Google sign-in to work.
func InitFirebase(ctx context.Context, credentialsPath string) (*App, error) {
	if credentialsPath == "" {
		log.Println("FIREBASE_CREDENTIALS_PATH not set, Google sign-in disabled.")
		return &App{}, nil
	}

	if _, err := os.Stat(credentialsPath); err != nil {
		return nil, fmt.Errorf("firebase credentials file not readable at %s: %w", credentialsPath, err)
	}

	firebaseApp, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	log.Println("Firebase app and auth client initialized successfully!")
	return &App{FirebaseApp: firebaseApp, AuthClient: authClient}, nil
}

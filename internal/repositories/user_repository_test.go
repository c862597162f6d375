package repositories_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/waveline-app/backend/internal/models"
	"github.com/waveline-app/backend/internal/repositories"
)

// findAndModifyValue builds a findAndModify reply carrying the post-image.
func findAndModifyValue(doc bson.D) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: doc})
}

// findAndModifyNoMatch builds a findAndModify reply for a filter that
// matched nothing, which the driver surfaces as ErrNoDocuments.
func findAndModifyNoMatch() bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil})
}

func TestFollow(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	actorID := primitive.NewObjectID()
	targetID := primitive.NewObjectID()

	actorDoc := bson.D{
		{Key: "_id", Value: actorID},
		{Key: "username", Value: "alice"},
		{Key: "following", Value: bson.A{targetID}},
		{Key: "followers", Value: bson.A{}},
	}
	targetDoc := bson.D{
		{Key: "_id", Value: targetID},
		{Key: "username", Value: "bob"},
		{Key: "following", Value: bson.A{}},
		{Key: "followers", Value: bson.A{actorID}},
	}

	mt.Run("SuccessMovesBothSides", func(mt *mtest.T) {
		repo := repositories.NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "waveline.users", mtest.FirstBatch, bson.D{{Key: "_id", Value: targetID}}),
			findAndModifyValue(actorDoc),
			findAndModifyValue(targetDoc),
		)

		actor, target, err := repo.Follow(context.Background(), actorID.Hex(), targetID.Hex())

		assert.NoError(mt, err)
		assert.Contains(mt, actor.Following, targetID)
		assert.Contains(mt, target.Followers, actorID)
	})

	mt.Run("ActorUpdateCarriesNotFollowingPredicate", func(mt *mtest.T) {
		repo := repositories.NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "waveline.users", mtest.FirstBatch, bson.D{{Key: "_id", Value: targetID}}),
			findAndModifyValue(actorDoc),
			findAndModifyValue(targetDoc),
		)

		_, _, err := repo.Follow(context.Background(), actorID.Hex(), targetID.Hex())
		assert.NoError(mt, err)

		// find (target exists), then the actor-side findAndModify whose
		// filter encodes the duplicate check.
		assert.Equal(mt, "find", mt.GetStartedEvent().CommandName)
		actorUpdate := mt.GetStartedEvent()
		assert.Equal(mt, "findAndModify", actorUpdate.CommandName)
		assert.Contains(mt, actorUpdate.Command.String(), "$ne")
		assert.Contains(mt, actorUpdate.Command.String(), "$addToSet")
	})

	mt.Run("DuplicateEdgeConflicts", func(mt *mtest.T) {
		repo := repositories.NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "waveline.users", mtest.FirstBatch, bson.D{{Key: "_id", Value: targetID}}),
			findAndModifyNoMatch(),
			mtest.CreateCursorResponse(0, "waveline.users", mtest.FirstBatch, actorDoc),
		)

		_, _, err := repo.Follow(context.Background(), actorID.Hex(), targetID.Hex())

		assert.ErrorIs(mt, err, models.ErrConflict)
	})

	mt.Run("MissingTargetNotFound", func(mt *mtest.T) {
		repo := repositories.NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "waveline.users", mtest.FirstBatch),
		)

		_, _, err := repo.Follow(context.Background(), actorID.Hex(), targetID.Hex())

		assert.ErrorIs(mt, err, models.ErrNotFound)
	})

	mt.Run("SelfFollowRejected", func(mt *mtest.T) {
		repo := repositories.NewMongoUserRepository(mt.DB)

		_, _, err := repo.Follow(context.Background(), actorID.Hex(), actorID.Hex())

		assert.ErrorIs(mt, err, models.ErrInvalidOperation)
	})

	mt.Run("TargetSideFailureCompensatesActorSide", func(mt *mtest.T) {
		repo := repositories.NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "waveline.users", mtest.FirstBatch, bson.D{{Key: "_id", Value: targetID}}),
			findAndModifyValue(actorDoc),
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 11600, Name: "InterruptedAtShutdown", Message: "server is shutting down"}),
			mtest.CreateSuccessResponse(),
		)

		_, _, err := repo.Follow(context.Background(), actorID.Hex(), targetID.Hex())
		assert.Error(mt, err)

		// find, actor-side findAndModify, failed target-side findAndModify,
		// then the compensating pull restoring the actor document.
		mt.GetStartedEvent()
		mt.GetStartedEvent()
		mt.GetStartedEvent()
		compensation := mt.GetStartedEvent()
		assert.Equal(mt, "update", compensation.CommandName)
		assert.Contains(mt, compensation.Command.String(), "$pull")
		assert.Contains(mt, compensation.Command.String(), "following")
	})
}

func TestUnfollow(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	actorID := primitive.NewObjectID()
	targetID := primitive.NewObjectID()

	actorDoc := bson.D{
		{Key: "_id", Value: actorID},
		{Key: "username", Value: "alice"},
		{Key: "following", Value: bson.A{}},
		{Key: "followers", Value: bson.A{}},
	}
	targetDoc := bson.D{
		{Key: "_id", Value: targetID},
		{Key: "username", Value: "bob"},
		{Key: "following", Value: bson.A{}},
		{Key: "followers", Value: bson.A{}},
	}

	mt.Run("SuccessRemovesBothSides", func(mt *mtest.T) {
		repo := repositories.NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(
			findAndModifyValue(actorDoc),
			findAndModifyValue(targetDoc),
		)

		actor, target, err := repo.Unfollow(context.Background(), actorID.Hex(), targetID.Hex())

		assert.NoError(mt, err)
		assert.NotContains(mt, actor.Following, targetID)
		assert.NotContains(mt, target.Followers, actorID)
	})

	mt.Run("MissingEdgeNotFound", func(mt *mtest.T) {
		repo := repositories.NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(findAndModifyNoMatch())

		_, _, err := repo.Unfollow(context.Background(), actorID.Hex(), targetID.Hex())

		assert.ErrorIs(mt, err, models.ErrNotFound)
	})

	mt.Run("TargetSideFailureCompensatesActorSide", func(mt *mtest.T) {
		repo := repositories.NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(
			findAndModifyValue(actorDoc),
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 11600, Name: "InterruptedAtShutdown", Message: "server is shutting down"}),
			mtest.CreateSuccessResponse(),
		)

		_, _, err := repo.Unfollow(context.Background(), actorID.Hex(), targetID.Hex())
		assert.Error(mt, err)

		// Actor-side pull, failed target-side pull, then the compensating
		// addToSet restoring the actor's following entry.
		mt.GetStartedEvent()
		mt.GetStartedEvent()
		compensation := mt.GetStartedEvent()
		assert.Equal(mt, "update", compensation.CommandName)
		assert.Contains(mt, compensation.Command.String(), "$addToSet")
		assert.Contains(mt, compensation.Command.String(), "following")
	})
}

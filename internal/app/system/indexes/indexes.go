// Package indexes reconciles the desired MongoDB index set at startup.
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// EnsureAll is called at startup. Each ensure* function is idempotent.
// Errors are aggregated so every problem is visible and startup can fail
// fast.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureTestSlots(ctx, db); err != nil {
		problems = append(problems, "test_slots: "+err.Error())
	}
	if err := ensureEvents(ctx, db); err != nil {
		problems = append(problems, "events: "+err.Error())
	}
	if err := ensureSlotPreferences(ctx, db); err != nil {
		problems = append(problems, "slot_preferences: "+err.Error())
	}
	if err := ensureSurveyQuestions(ctx, db); err != nil {
		problems = append(problems, "survey_questions: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_email").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "student_id", Value: 1}},
			Options: options.Index().SetName("uniq_student_id").SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}},
			Options: options.Index().SetName("by_role"),
		},
	})
}

func ensureTestSlots(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("test_slots"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "is_active", Value: 1}, {Key: "test_date", Value: 1}},
			Options: options.Index().SetName("active_by_date"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("by_created"),
		},
	})
}

func ensureEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "is_active", Value: 1}, {Key: "event_date", Value: 1}},
			Options: options.Index().SetName("active_by_date"),
		},
		{
			Keys:    bson.D{{Key: "title_ci", Value: 1}},
			Options: options.Index().SetName("by_title_ci"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("by_created"),
		},
	})
}

func ensureSlotPreferences(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("slot_preferences"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "is_active", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("active_by_created"),
		},
	})
}

func ensureSurveyQuestions(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("survey_questions"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "is_active", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("active_by_created"),
		},
	})
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, desired []mongo.IndexModel) error {
	var errs []string

	for _, m := range desired {
		name := ""
		if m.Options != nil && m.Options.Name != nil {
			name = *m.Options.Name
		}

		start := time.Now()
		_, err := coll.Indexes().CreateOne(ctx, m)
		if err != nil && isOptionsConflictErr(err) {
			// Same keys under a different name/options: drop by name and retry
			// so the desired definition wins.
			if name != "" {
				if _, dropErr := coll.Indexes().DropOne(ctx, name); dropErr == nil {
					_, err = coll.Indexes().CreateOne(ctx, m)
				}
			}
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s/%s: %v", coll.Name(), name, err))
			continue
		}

		zap.L().Info("ensured index",
			zap.String("collection", coll.Name()),
			zap.String("index", name),
			zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

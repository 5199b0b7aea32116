package services

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/talentra/hrms_backend/models"
)

func TestMissingAttendance(t *testing.T) {
	alice := models.User{ID: primitive.NewObjectID(), FullName: "Alice"}
	bob := models.User{ID: primitive.NewObjectID(), FullName: "Bob"}
	carol := models.User{ID: primitive.NewObjectID(), FullName: "Carol"}
	users := []models.User{alice, bob, carol}

	t.Run("nobody clocked in", func(t *testing.T) {
		missing := MissingAttendance(users, map[primitive.ObjectID]bool{})
		if len(missing) != 3 {
			t.Fatalf("missing = %d, want 3", len(missing))
		}
	})

	t.Run("recorded users are skipped", func(t *testing.T) {
		recorded := map[primitive.ObjectID]bool{alice.ID: true, carol.ID: true}
		missing := MissingAttendance(users, recorded)
		if len(missing) != 1 || missing[0].ID != bob.ID {
			t.Fatalf("missing = %+v, want only Bob", missing)
		}
	})

	t.Run("second pass after marking finds nothing", func(t *testing.T) {
		recorded := map[primitive.ObjectID]bool{alice.ID: true}
		missing := MissingAttendance(users, recorded)

		// The job inserts records for everyone missing; rebuild the map the
		// way the next run would see it
		for _, user := range missing {
			recorded[user.ID] = true
		}
		if again := MissingAttendance(users, recorded); len(again) != 0 {
			t.Fatalf("second pass = %+v, want none", again)
		}
	})

	t.Run("no users", func(t *testing.T) {
		if missing := MissingAttendance(nil, map[primitive.ObjectID]bool{}); len(missing) != 0 {
			t.Fatalf("missing = %+v, want none", missing)
		}
	})
}

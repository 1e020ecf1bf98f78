package stats

import (
	"testing"
	"time"

	"peek/internal/tracker"
)

func TestPartitionMoldy(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	assigned := []tracker.Task{
		{ID: "recent", Modified: now.Add(-10 * time.Second)},
		{ID: "old", Modified: now.Add(-100 * time.Second)},
	}

	moldy := PartitionMoldy(assigned, 50*time.Second, now)
	if len(moldy) != 1 || moldy[0].ID != "old" {
		t.Errorf("moldy = %+v, want only the old task", moldy)
	}
	if len(assigned) != 2 || assigned[0].ID != "recent" {
		t.Errorf("assigned list changed: %+v", assigned)
	}
}

func TestPartitionMoldy_Ordering(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	day := 24 * time.Hour
	assigned := []tracker.Task{
		{ID: "b", Modified: now.Add(-40 * day)},
		{ID: "a", Modified: now.Add(-90 * day)},
		{ID: "c", Modified: now.Add(-31 * day)},
	}

	moldy := PartitionMoldy(assigned, 30*day, now)
	var ids []string
	for _, task := range moldy {
		ids = append(ids, task.ID)
	}
	if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Errorf("order = %v, want oldest first", ids)
	}
}

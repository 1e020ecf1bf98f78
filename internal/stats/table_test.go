package stats

import (
	"reflect"
	"testing"

	"peek/internal/tracker"
)

func TestBuildTables_Scenario(t *testing.T) {
	history := History{
		{Days: 30, Summary: tracker.FieldSummary{"status": {"open": 5}}},
		{Days: 7, Summary: tracker.FieldSummary{"status": {"open": 3, "resolved": 1}}},
	}

	tables := BuildTables(DiscoverHeader(history), history)
	table, ok := tables["status"]
	if !ok {
		t.Fatal("expected a status table")
	}

	if !reflect.DeepEqual(table.Header, []string{"days", "open", "resolved"}) {
		t.Errorf("header = %v", table.Header)
	}
	want := []TableRow{
		{Days: 30, Counts: []int{5, 0}},
		{Days: 7, Counts: []int{3, 1}},
	}
	if !reflect.DeepEqual(table.Rows, want) {
		t.Errorf("rows = %v, want %v", table.Rows, want)
	}
}

func TestBuildTables_ZeroFill(t *testing.T) {
	header := Header{"priority": {"High", "Low", "Unbreak Now!"}}
	history := History{
		{Days: 90, Summary: tracker.FieldSummary{"priority": {"Low": 2}}},
		{Days: 30, Summary: tracker.FieldSummary{}},
	}

	table := BuildTables(header, history)["priority"]
	for _, row := range table.Rows {
		if len(row.Counts) != 3 {
			t.Fatalf("row for %d days has %d cells, want 3", row.Days, len(row.Counts))
		}
	}
	if !reflect.DeepEqual(table.Rows[0].Counts, []int{0, 2, 0}) {
		t.Errorf("90 day row = %v", table.Rows[0].Counts)
	}
	if !reflect.DeepEqual(table.Rows[1].Counts, []int{0, 0, 0}) {
		t.Errorf("a duration without the field must be all zeros, got %v", table.Rows[1].Counts)
	}
}

func TestBuildTables_KeepsHistoryOrder(t *testing.T) {
	history := History{
		{Days: 7, Summary: tracker.FieldSummary{"status": {"open": 1}}},
		{Days: 90, Summary: tracker.FieldSummary{"status": {"open": 9}}},
		{Days: 30, Summary: tracker.FieldSummary{"status": {"open": 3}}},
	}

	table := BuildTables(DiscoverHeader(history), history)["status"]
	var days []int
	for _, row := range table.Rows {
		days = append(days, row.Days)
	}
	if !reflect.DeepEqual(days, []int{7, 90, 30}) {
		t.Errorf("row order = %v, want input order", days)
	}
}

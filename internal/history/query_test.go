package history

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"Inventario/internal/kv"
)

func appendAt(t *testing.T, l *Log, ts time.Time, user string, id int) {
	t.Helper()
	_, err := l.Append(context.Background(), Record{Timestamp: ts, Username: user, ProductID: id, Action: ActionAdd})
	require.NoError(t, err)
}

func ids(records []Record) []int {
	out := make([]int, 0, len(records))
	for _, r := range records {
		out = append(out, r.ProductID)
	}
	return out
}

func TestQuery_NewestFirst(t *testing.T) {
	l, _, _ := newTestLog(t)

	appendAt(t, l, t0, "ana", 1)
	appendAt(t, l, t0.Add(2*time.Hour), "ana", 2)
	appendAt(t, l, t0.Add(time.Hour), "ana", 3)

	assert.Equal(t, []int{2, 3, 1}, ids(l.Query(context.Background(), Filter{})))
	assert.Equal(t, []int{1, 2, 3}, ids(l.ListAll(context.Background())), "ListAll keeps insertion order")
}

func TestQuery_TiesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newTestLog(t)

	// Both appends read the same frozen clock.
	_, err := l.Append(ctx, Record{Username: "alice", ProductID: 1, Action: ActionAdd})
	require.NoError(t, err)
	_, err = l.Append(ctx, Record{Username: "bob", ProductID: 2, Action: ActionAdd})
	require.NoError(t, err)
	appendAt(t, l, t0.Add(-time.Minute), "carol", 3)

	for i := 0; i < 5; i++ {
		got := l.Query(ctx, Filter{})
		require.Len(t, got, 3)
		assert.Equal(t, "alice", got[0].Username)
		assert.Equal(t, "bob", got[1].Username)
		assert.Equal(t, "carol", got[2].Username)
	}
}

func TestQuery_UserFilterIsExact(t *testing.T) {
	l, _, _ := newTestLog(t)

	appendAt(t, l, t0, "ana", 1)
	appendAt(t, l, t0.Add(time.Minute), "Ana", 2)
	appendAt(t, l, t0.Add(2*time.Minute), "ana", 3)

	assert.Equal(t, []int{3, 1}, ids(l.Query(context.Background(), Filter{User: "ana"})))
	assert.Len(t, l.Query(context.Background(), Filter{User: ""}), 3)
}

func TestQuery_DateUsesLogLocation(t *testing.T) {
	bogota := time.FixedZone("COT", -5*3600)
	l := NewLog(kv.NewMemStore(), zap.NewNop(), WithLocation(bogota))

	// 2024-05-02T03:00Z is still May 1st in UTC-5.
	appendAt(t, l, time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC), "ana", 1)
	appendAt(t, l, time.Date(2024, 5, 2, 3, 0, 0, 0, time.UTC), "ana", 2)
	appendAt(t, l, time.Date(2024, 5, 2, 6, 0, 0, 0, time.UTC), "ana", 3)

	day, err := ParseDay("2024-05-01", l.Location())
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, ids(l.Query(context.Background(), Filter{Date: day})))

	day, err = ParseDay("2024-05-02", l.Location())
	require.NoError(t, err)
	assert.Equal(t, []int{3}, ids(l.Query(context.Background(), Filter{Date: day})))
}

func TestQuery_BothFilters(t *testing.T) {
	l, _, _ := newTestLog(t)

	appendAt(t, l, t0, "ana", 1)
	appendAt(t, l, t0.Add(time.Hour), "luis", 2)
	appendAt(t, l, t0.Add(24*time.Hour), "ana", 3)
	appendAt(t, l, t0.Add(2*time.Hour), "ana", 4)

	day, err := ParseDay("2024-05-01", time.UTC)
	require.NoError(t, err)

	got := l.Query(context.Background(), Filter{User: "ana", Date: day})
	assert.Equal(t, []int{4, 1}, ids(got))
	for _, r := range got {
		assert.Equal(t, "ana", r.Username)
	}
}

func TestParseDay(t *testing.T) {
	day, err := ParseDay("  ", time.UTC)
	require.NoError(t, err)
	assert.True(t, day.IsZero())

	day, err = ParseDay("2024-05-01", time.UTC)
	require.NoError(t, err)
	assert.True(t, day.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))

	day, err = ParseDay("2024-05-01T18:45:00", time.UTC)
	require.NoError(t, err)
	assert.True(t, day.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)), "time of day is dropped")

	_, err = ParseDay("yesterday-ish", time.UTC)
	assert.Error(t, err)
}

func TestExportCSV(t *testing.T) {
	l, _, _ := newTestLog(t)
	_, err := l.Append(context.Background(), Record{
		Username: "ana", ProductID: 3, ProductName: "Snacks para perro",
		Action: ActionIncrement, OldQuantity: 100, NewQuantity: 110,
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, l.ListAll(context.Background())))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "timestamp,username,product_id,product_name,action,old_quantity,new_quantity", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "2024-05-01T10:00:00Z,"), lines[1])
	assert.True(t, strings.HasSuffix(lines[1], ",ana,3,Snacks para perro,INCREMENT,100,110"), lines[1])
}

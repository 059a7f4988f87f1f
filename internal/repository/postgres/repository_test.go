package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"go.uber.org/zap"

	"github.com/trevyn/lumabot/internal/domain"
	"github.com/trevyn/lumabot/internal/retention"
)

// recordingConn captures every statement and its bound parameters so the
// hand-written SQL paths can be checked without a live database.
type recordingConn struct {
	execQueries  []string
	execArgs     [][]driver.NamedValue
	queryQueries []string
	columnExists bool
}

func (c *recordingConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (c *recordingConn) Close() error { return nil }

func (c *recordingConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

func (c *recordingConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.execQueries = append(c.execQueries, query)
	c.execArgs = append(c.execArgs, args)
	return driver.RowsAffected(1), nil
}

func (c *recordingConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.queryQueries = append(c.queryQueries, query)
	return &boolRows{value: c.columnExists}, nil
}

type boolRows struct {
	value bool
	done  bool
}

func (r *boolRows) Columns() []string { return []string{"exists"} }
func (r *boolRows) Close() error      { return nil }

func (r *boolRows) Next(dest []driver.Value) error {
	if r.done {
		return io.EOF
	}
	r.done = true
	dest[0] = r.value
	return nil
}

type recordingConnector struct {
	conn *recordingConn
}

func (c *recordingConnector) Connect(context.Context) (driver.Conn, error) { return c.conn, nil }
func (c *recordingConnector) Driver() driver.Driver                        { return recordingDriver{} }

type recordingDriver struct{}

func (recordingDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("open through the connector")
}

func recordingRepository(conn *recordingConn) *Repository {
	sqldb := sql.OpenDB(&recordingConnector{conn: conn})
	client := &Client{db: bun.NewDB(sqldb, pgdialect.New()), log: zap.NewNop()}
	return NewRepository(client, retention.NewFilter(retention.DefaultWindow), zap.NewNop())
}

func TestSaveEvent_BindsAllParameters(t *testing.T) {
	conn := &recordingConn{}
	repo := recordingRepository(conn)

	start := time.Date(2024, 6, 10, 18, 0, 0, 0, time.UTC)
	ev := domain.NewEvent("Launch Party", "", "Pier 9", start, start.Add(2*time.Hour), "https://lu.ma/e/abc123")
	ev.APIID = "evt-42"

	require.NoError(t, repo.SaveEvent(context.Background(), ev))

	require.Len(t, conn.execQueries, 1)
	query := conn.execQueries[0]
	assert.Contains(t, query, "$8", "positional placeholders must survive to the driver")
	assert.Contains(t, query, "ON CONFLICT (event_uid) DO UPDATE SET api_id = EXCLUDED.api_id")
	assert.Contains(t, query, "WHERE events.api_id IS NULL")

	args := conn.execArgs[0]
	require.Len(t, args, 8, "every placeholder needs a bound parameter")
	assert.Equal(t, "Launch Party", args[0].Value)
	assert.Nil(t, args[1].Value, "an absent description must arrive as NULL")
	assert.Equal(t, "Pier 9", args[2].Value)
	assert.Equal(t, ev.EventUID, args[6].Value)
	assert.Equal(t, "evt-42", args[7].Value)
}

func TestSaveEvent_AbsentAPIIDBindsNull(t *testing.T) {
	conn := &recordingConn{}
	repo := recordingRepository(conn)

	start := time.Date(2024, 6, 10, 18, 0, 0, 0, time.UTC)
	ev := domain.NewEvent("Meetup", "", "", start, start.Add(time.Hour), "")

	require.NoError(t, repo.SaveEvent(context.Background(), ev))

	args := conn.execArgs[0]
	require.Len(t, args, 8)
	assert.Nil(t, args[7].Value, "the NULL guard only works when absent api_id is NULL, not empty string")
}

func TestInitSchema_SkipsMigrationWhenColumnExists(t *testing.T) {
	conn := &recordingConn{columnExists: true}
	repo := recordingRepository(conn)

	require.NoError(t, repo.InitSchema(context.Background()))

	require.Len(t, conn.execQueries, 1)
	assert.Contains(t, conn.execQueries[0], "CREATE TABLE IF NOT EXISTS events")
	require.Len(t, conn.queryQueries, 1)
	assert.Contains(t, conn.queryQueries[0], "information_schema.columns")
}

func TestInitSchema_AddsColumnWhenMissing(t *testing.T) {
	conn := &recordingConn{columnExists: false}
	repo := recordingRepository(conn)

	require.NoError(t, repo.InitSchema(context.Background()))

	require.Len(t, conn.execQueries, 2)
	assert.Contains(t, conn.execQueries[1], "ALTER TABLE events ADD COLUMN api_id TEXT")
}

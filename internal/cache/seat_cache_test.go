package cache

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/go-redis/redismock/v9"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestMarkHeld(t *testing.T) {
    rdb, mock := redismock.NewClientMock()
    c := New(rdb, "seathold")
    ctx := context.Background()

    mock.ExpectSet("seathold:7:A-12", "sess-a", 10*time.Minute).SetVal("OK")
    c.MarkHeld(ctx, 7, "A-12", "sess-a", 10*time.Minute)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestProbablyHeld(t *testing.T) {
    rdb, mock := redismock.NewClientMock()
    c := New(rdb, "seathold")
    ctx := context.Background()

    mock.ExpectExists("seathold:7:A-12").SetVal(1)
    assert.True(t, c.ProbablyHeld(ctx, 7, "A-12"))

    mock.ExpectExists("seathold:7:A-13").SetVal(0)
    assert.False(t, c.ProbablyHeld(ctx, 7, "A-13"))

    require.NoError(t, mock.ExpectationsWereMet())
}

func TestEvict(t *testing.T) {
    rdb, mock := redismock.NewClientMock()
    c := New(rdb, "seathold")

    mock.ExpectDel("seathold:7:A-12").SetVal(1)
    c.Evict(context.Background(), 7, "A-12")
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestErrorsAreSwallowed(t *testing.T) {
    rdb, mock := redismock.NewClientMock()
    c := New(rdb, "seathold")
    ctx := context.Background()
    boom := errors.New("connection refused")

    mock.ExpectSet("seathold:7:A-12", "sess-a", time.Minute).SetErr(boom)
    c.MarkHeld(ctx, 7, "A-12", "sess-a", time.Minute) // must not panic or surface

    mock.ExpectExists("seathold:7:A-12").SetErr(boom)
    assert.False(t, c.ProbablyHeld(ctx, 7, "A-12"))

    mock.ExpectDel("seathold:7:A-12").SetErr(boom)
    c.Evict(ctx, 7, "A-12")

    require.NoError(t, mock.ExpectationsWereMet())
}

func TestNilClientDisablesCache(t *testing.T) {
    c := New(nil, "")
    ctx := context.Background()

    assert.False(t, c.Enabled())
    c.MarkHeld(ctx, 7, "A-12", "sess-a", time.Minute)
    c.Evict(ctx, 7, "A-12")
    assert.False(t, c.ProbablyHeld(ctx, 7, "A-12"))
}

func TestDefaultPrefix(t *testing.T) {
    rdb, mock := redismock.NewClientMock()
    c := New(rdb, "")

    mock.ExpectExists("seathold:1:B-1").SetVal(1)
    assert.True(t, c.ProbablyHeld(context.Background(), 1, "B-1"))
    require.NoError(t, mock.ExpectationsWereMet())
}

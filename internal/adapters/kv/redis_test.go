package kv

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_GetSetDelete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db, WithKeyPrefix("pinlog:"))
	ctx := context.Background()

	mock.ExpectGet("pinlog:workouts").RedisNil()
	_, found, err := s.Get(ctx, "workouts")
	require.NoError(t, err)
	assert.False(t, found)

	mock.ExpectSet("pinlog:workouts", []byte(`{"version":1}`), 0).SetVal("OK")
	require.NoError(t, s.Set(ctx, "workouts", []byte(`{"version":1}`)))

	mock.ExpectGet("pinlog:workouts").SetVal(`{"version":1}`)
	got, found, err := s.Get(ctx, "workouts")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"version":1}`, string(got))

	mock.ExpectDel("pinlog:workouts").SetVal(1)
	require.NoError(t, s.Delete(ctx, "workouts"))

	mock.ExpectPing().SetVal("PONG")
	require.NoError(t, s.Ping(ctx))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Errors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db)
	ctx := context.Background()
	boom := errors.New("connection refused")

	mock.ExpectGet("workouts").SetErr(boom)
	_, _, err := s.Get(ctx, "workouts")
	assert.ErrorIs(t, err, boom)

	mock.ExpectSet("workouts", []byte("x"), 0).SetErr(boom)
	assert.ErrorIs(t, s.Set(ctx, "workouts", []byte("x")), boom)

	mock.ExpectDel("workouts").SetErr(boom)
	assert.ErrorIs(t, s.Delete(ctx, "workouts"), boom)

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NotErrorIs(t, boom, redis.Nil)
}

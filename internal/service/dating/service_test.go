package dating_test

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/oggyb/matchmaker/internal/apptest"
	"github.com/oggyb/matchmaker/internal/db"
	"github.com/oggyb/matchmaker/internal/logger"
	"github.com/oggyb/matchmaker/internal/server"
	"github.com/oggyb/matchmaker/internal/service/dating"
	"github.com/oggyb/matchmaker/internal/service/profile"
)

// setupClient serves DatingService over an in-memory listener and returns a
// client connected to it.
func setupClient(t *testing.T) (*dating.Client, *apptest.Env) {
	t.Helper()
	env := apptest.New(t)

	lis := bufconn.Listen(1 << 20)
	srv := server.NewGRPCServer(logger.Discard(), dating.NewRegistrar(env.App))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return dating.NewClient(conn), env
}

func createReq(ext int64, gender, showGender string) *dating.CreateProfileRequest {
	return &dating.CreateProfileRequest{
		ExternalID: ext,
		Name:       "Tester",
		Age:        30,
		Gender:     gender,
		ShowGender: showGender,
		Country:    "Georgia",
		City:       "Tbilisi",
	}
}

func TestProfileLifecycle(t *testing.T) {
	ctx := context.Background()
	client, _ := setupClient(t)

	created, err := client.CreateProfile(ctx, createReq(42, "male", "all"))
	require.NoError(t, err)
	assert.Equal(t, int64(42), created.Profile.TelegramID)
	assert.Equal(t, 60, created.SwipesLeft)
	assert.Equal(t, []string{}, created.Profile.Interests)

	_, err = client.CreateProfile(ctx, createReq(42, "male", "all"))
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	bio := "hi"
	updated, err := client.UpdateProfile(ctx, &dating.UpdateProfileRequest{
		TelegramID:  42,
		UpdateInput: profile.UpdateInput{Bio: &bio},
	})
	require.NoError(t, err)
	assert.Equal(t, "hi", updated.Profile.Bio)

	got, err := client.GetProfile(ctx, &dating.GetProfileRequest{TelegramID: 42})
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Profile.Bio)
	assert.Equal(t, "Tbilisi", got.Profile.City)

	_, err = client.GetProfile(ctx, &dating.GetProfileRequest{TelegramID: 43})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.GetProfile(ctx, &dating.GetProfileRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	bad := createReq(44, "male", "all")
	bad.Age = 12
	_, err = client.CreateProfile(ctx, bad)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestFeedSwipeAndMatch(t *testing.T) {
	ctx := context.Background()
	client, _ := setupClient(t)

	me, err := client.CreateProfile(ctx, createReq(1, "male", "female"))
	require.NoError(t, err)
	her, err := client.CreateProfile(ctx, createReq(2, "female", "male"))
	require.NoError(t, err)

	next, err := client.NextCandidate(ctx, &dating.NextCandidateRequest{TelegramID: 1})
	require.NoError(t, err)
	require.True(t, next.Found)
	assert.Equal(t, her.Profile.ID, next.Profile.ID)

	res, err := client.Swipe(ctx, &dating.SwipeRequest{TelegramID: 1, TargetID: her.Profile.ID, IsLike: true})
	require.NoError(t, err)
	assert.False(t, res.IsMatch)
	assert.Equal(t, 59, res.SwipesLeft)

	next, err = client.NextCandidate(ctx, &dating.NextCandidateRequest{TelegramID: 1})
	require.NoError(t, err)
	assert.False(t, next.Found)
	assert.Nil(t, next.Profile)

	res, err = client.Swipe(ctx, &dating.SwipeRequest{TelegramID: 2, TargetID: me.Profile.ID, IsLike: true})
	require.NoError(t, err)
	assert.True(t, res.IsMatch)

	list, err := client.ListMatches(ctx, &dating.ListMatchesRequest{TelegramID: 1})
	require.NoError(t, err)
	require.Len(t, list.Matches, 1)
	assert.Equal(t, her.Profile.ID, list.Matches[0].Partner.ID)
	assert.Nil(t, list.NextPageToken)

	stats, err := client.GetStats(ctx, &dating.GetStatsRequest{TelegramID: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.LikesReceived)
	assert.Equal(t, int64(1), stats.ProfileVisits)
	assert.Equal(t, int64(1), stats.MatchesCount)
	assert.Equal(t, 1, stats.SwipesToday)
}

func TestSwipeErrors(t *testing.T) {
	ctx := context.Background()
	client, env := setupClient(t)

	env.AddProfile(t, db.Profile{ExternalID: 1, SwipesUsedToday: 60})
	target := env.AddProfile(t, db.Profile{ExternalID: 2})

	_, err := client.Swipe(ctx, &dating.SwipeRequest{TelegramID: 1, TargetID: target.ID, IsLike: true})
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))

	_, err = client.Swipe(ctx, &dating.SwipeRequest{TelegramID: 2})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Swipe(ctx, &dating.SwipeRequest{TelegramID: 2, TargetID: target.ID})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Swipe(ctx, &dating.SwipeRequest{TelegramID: 2, TargetID: 9999})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.ListMatches(ctx, &dating.ListMatchesRequest{TelegramID: 2, PageToken: ptr("%%%")})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func ptr[T any](v T) *T { return &v }

package service

import (
	"context"
	"testing"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/permission"
	"yamdb/internal/microservices/http-api/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	alice     = &models.User{ID: "u-alice", Username: "alice", Role: models.RoleUser}
	bob       = &models.User{ID: "u-bob", Username: "bob", Role: models.RoleUser}
	moderator = &models.User{ID: "u-mod", Username: "mod", Role: models.RoleModerator}
	film      = &models.Title{ID: 10, Name: "Film", Year: 2000}
)

type reviewFixture struct {
	reviews *MockReviewRepository
	titles  *MockTitleRepository
	cache   *fakeCache
	svc     ReviewService
}

func newReviewFixture() *reviewFixture {
	f := &reviewFixture{
		reviews: new(MockReviewRepository),
		titles:  new(MockTitleRepository),
		cache:   &fakeCache{data: map[int64]float64{}},
	}
	ratings := NewRatings(f.reviews, f.cache, discardLogger())
	f.svc = NewReviewService(f.reviews, f.titles, ratings, discardLogger())
	return f
}

func aliceReview() *models.Review {
	return &models.Review{ID: 5, TitleID: film.ID, AuthorID: alice.ID, Author: alice, Text: "good", Score: 7}
}

func TestReviewService_Create(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()
	f.titles.On("GetByID", ctx, film.ID).Return(film, nil)
	f.reviews.On("ExistsByAuthorAndTitle", ctx, alice.ID, film.ID).Return(false, nil)
	f.reviews.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(nil)

	resp, err := f.svc.Create(ctx, alice, film.ID, dto.CreateReviewDTO{Text: "great", Score: intPtr(9)})
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Author)
	assert.Equal(t, "Film", resp.Title)
	assert.Equal(t, 9, resp.Score)
	assert.Equal(t, []int64{film.ID}, f.cache.invalidate)
}

func TestReviewService_CreateDuplicate(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()
	f.titles.On("GetByID", ctx, film.ID).Return(film, nil)
	f.reviews.On("ExistsByAuthorAndTitle", ctx, alice.ID, film.ID).Return(true, nil)

	_, err := f.svc.Create(ctx, alice, film.ID, dto.CreateReviewDTO{Text: "again", Score: intPtr(3)})
	assert.ErrorIs(t, err, ErrDuplicateReview)
	f.reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReviewService_CreateDuplicateRace(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()
	f.titles.On("GetByID", ctx, film.ID).Return(film, nil)
	f.reviews.On("ExistsByAuthorAndTitle", ctx, alice.ID, film.ID).Return(false, nil)
	f.reviews.On("Create", ctx, mock.Anything).Return(repository.ErrDuplicate)

	_, err := f.svc.Create(ctx, alice, film.ID, dto.CreateReviewDTO{Text: "again", Score: intPtr(3)})
	assert.ErrorIs(t, err, ErrDuplicateReview)
}

func TestReviewService_CreateScoreRange(t *testing.T) {
	for _, score := range []int{0, 11, -1} {
		f := newReviewFixture()
		ctx := context.Background()
		f.titles.On("GetByID", ctx, film.ID).Return(film, nil)

		_, err := f.svc.Create(ctx, alice, film.ID, dto.CreateReviewDTO{Text: "x", Score: intPtr(score)})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "score %d", score)
		assert.Equal(t, []string{msgScoreRange}, verr.Fields["score"])
	}
}

func TestReviewService_MissingTitle(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()
	f.titles.On("GetByID", ctx, int64(99)).Return(nil, gorm.ErrRecordNotFound)

	_, err := f.svc.List(ctx, 99, 1, 10)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Create(ctx, alice, 99, dto.CreateReviewDTO{Text: "x", Score: intPtr(5)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReviewService_UpdatePermissions(t *testing.T) {
	tests := []struct {
		name    string
		caller  *models.User
		wantErr error
	}{
		{"author", alice, nil},
		{"moderator", moderator, nil},
		{"other user", bob, ErrPermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReviewFixture()
			ctx := context.Background()
			f.titles.On("GetByID", ctx, film.ID).Return(film, nil)
			f.reviews.On("GetByTitleAndID", ctx, film.ID, int64(5)).Return(aliceReview(), nil)
			f.reviews.On("Update", ctx, mock.AnythingOfType("*models.Review")).Return(nil)

			resp, err := f.svc.Update(ctx, permission.Caller{User: tt.caller}, film.ID, 5, dto.UpdateReviewDTO{Score: intPtr(2)}, true)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				f.reviews.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 2, resp.Score)
			assert.Equal(t, "good", resp.Text)
		})
	}
}

func TestReviewService_PutRequiresAllFields(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()
	f.titles.On("GetByID", ctx, film.ID).Return(film, nil)
	f.reviews.On("GetByTitleAndID", ctx, film.ID, int64(5)).Return(aliceReview(), nil)

	_, err := f.svc.Update(ctx, permission.Caller{User: alice}, film.ID, 5, dto.UpdateReviewDTO{Text: strPtr("only text")}, false)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{msgRequired}, verr.Fields["score"])
}

func TestReviewService_Delete(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()
	f.titles.On("GetByID", ctx, film.ID).Return(film, nil)
	f.reviews.On("GetByTitleAndID", ctx, film.ID, int64(5)).Return(aliceReview(), nil)
	f.reviews.On("GetByTitleAndID", ctx, film.ID, int64(6)).Return(nil, gorm.ErrRecordNotFound)
	f.reviews.On("Delete", ctx, int64(5)).Return(nil)

	assert.ErrorIs(t, f.svc.Delete(ctx, permission.Caller{User: bob}, film.ID, 5), ErrPermissionDenied)
	assert.ErrorIs(t, f.svc.Delete(ctx, permission.Caller{User: alice}, film.ID, 6), ErrNotFound)
	assert.NoError(t, f.svc.Delete(ctx, permission.Caller{User: alice}, film.ID, 5))
	f.reviews.AssertNumberOfCalls(t, "Delete", 1)
}

func TestReviewService_List(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()
	f.titles.On("GetByID", ctx, film.ID).Return(film, nil)
	f.reviews.On("ListByTitle", ctx, film.ID, 1, 10).Return([]models.Review{*aliceReview()}, int64(1), nil)

	resp, err := f.svc.List(ctx, film.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "alice", resp.Data[0].Author)
}

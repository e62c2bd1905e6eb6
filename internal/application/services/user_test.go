package services

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domain "user-registry-api/internal/domain/user"
	"user-registry-api/internal/infrastructure/mq"
)

type FakeRepository struct {
	FetchUsersFunc       func(ctx context.Context) (domain.Users, error)
	FetchUserByIDFunc    func(ctx context.Context, id string) (*domain.User, error)
	FetchUserByEmailFunc func(ctx context.Context, email string) (*domain.User, error)
	CreateUserFunc       func(ctx context.Context, u domain.User) (*domain.User, error)
	UpdateUserFunc       func(ctx context.Context, id string, p domain.Patch) (*domain.User, error)
	DeleteUserFunc       func(ctx context.Context, id string) (*domain.User, error)
}

func (f *FakeRepository) FetchUsers(ctx context.Context) (domain.Users, error) {
	if f.FetchUsersFunc == nil {
		return nil, errors.New("not used")
	}
	return f.FetchUsersFunc(ctx)
}
func (f *FakeRepository) FetchUserByID(ctx context.Context, id string) (*domain.User, error) {
	if f.FetchUserByIDFunc == nil {
		return nil, errors.New("not used")
	}
	return f.FetchUserByIDFunc(ctx, id)
}
func (f *FakeRepository) FetchUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if f.FetchUserByEmailFunc == nil {
		return nil, domain.ErrNotFound
	}
	return f.FetchUserByEmailFunc(ctx, email)
}
func (f *FakeRepository) CreateUser(ctx context.Context, u domain.User) (*domain.User, error) {
	if f.CreateUserFunc == nil {
		return nil, errors.New("not used")
	}
	return f.CreateUserFunc(ctx, u)
}
func (f *FakeRepository) UpdateUser(ctx context.Context, id string, p domain.Patch) (*domain.User, error) {
	if f.UpdateUserFunc == nil {
		return nil, errors.New("not used")
	}
	return f.UpdateUserFunc(ctx, id, p)
}
func (f *FakeRepository) DeleteUser(ctx context.Context, id string) (*domain.User, error) {
	if f.DeleteUserFunc == nil {
		return nil, errors.New("not used")
	}
	return f.DeleteUserFunc(ctx, id)
}

type fakePublisher struct {
	err    error
	events []mq.Event
}

func (f *fakePublisher) Publish(_ context.Context, e mq.Event) error {
	f.events = append(f.events, e)
	return f.err
}

type fixture struct {
	repo    *FakeRepository
	store   *memStorage
	events  *fakePublisher
	service *UserService
}

func newFixture() *fixture {
	f := &fixture{
		repo:   &FakeRepository{},
		store:  newMemStorage(),
		events: &fakePublisher{},
	}
	f.service = NewUserService(
		f.repo,
		NewUploadService(f.store, newCounter()),
		f.events,
		zap.NewNop(),
		newCounter(),
	).(*UserService)
	return f
}

func johnInput() domain.User {
	return domain.User{
		FirstName:   " John ",
		LastName:    "Doe",
		Email:       "John@X.com",
		PhoneNumber: "+1 (555) 123-4567",
		Gender:      "M",
	}
}

func stored(u domain.User) *domain.User {
	u.ID = uuid.New()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	return &u
}

func png(t *testing.T) *multipart.FileHeader {
	return fileHeader(t, "avatar.png", "image/png", bytes.Repeat([]byte{1}, 10<<10))
}

func TestUserService_CreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("normalized record is stored and announced", func(t *testing.T) {
		f := newFixture()
		var inserted domain.User
		f.repo.CreateUserFunc = func(_ context.Context, u domain.User) (*domain.User, error) {
			inserted = u
			return stored(u), nil
		}

		got, err := f.service.CreateUser(ctx, johnInput(), nil)
		require.NoError(t, err)

		assert.Equal(t, "John", inserted.FirstName)
		assert.Equal(t, "john@x.com", inserted.Email)
		assert.Equal(t, "+15551234567", inserted.PhoneNumber)
		assert.Nil(t, inserted.ProfilePicture)
		assert.NotEqual(t, uuid.Nil, got.ID)

		require.Len(t, f.events.events, 1)
		assert.Equal(t, http.MethodPost, f.events.events[0].Method)
		assert.Equal(t, got.ID.String(), f.events.events[0].UserID)
		assert.Equal(t, 1.0, counterValue(t, f.service.mCounter, "user_created_total"))
	})

	t.Run("picture is stored and referenced", func(t *testing.T) {
		f := newFixture()
		f.repo.CreateUserFunc = func(_ context.Context, u domain.User) (*domain.User, error) {
			return stored(u), nil
		}

		got, err := f.service.CreateUser(ctx, johnInput(), png(t))
		require.NoError(t, err)
		require.NotNil(t, got.ProfilePicture)
		assert.Regexp(t, `^/uploads/avatar-\d+-[0-9a-f]{8}\.png$`, *got.ProfilePicture)
		assert.Len(t, f.store.files, 1)
	})

	t.Run("schema violations", func(t *testing.T) {
		f := newFixture()
		in := johnInput()
		in.FirstName = "A"

		_, err := f.service.CreateUser(ctx, in, png(t))

		var v domain.Violations
		require.ErrorAs(t, err, &v)
		assert.Equal(t, "First name must be at least 2 characters long", v.Error())
		assert.Empty(t, f.store.files)
		assert.Empty(t, f.events.events)
	})

	t.Run("email longer than the column never reaches the store", func(t *testing.T) {
		f := newFixture()
		f.repo.CreateUserFunc = func(context.Context, domain.User) (*domain.User, error) {
			t.Fatal("insert must not run")
			return nil, nil
		}
		in := johnInput()
		in.Email = strings.Repeat("a", domain.EmailMaxLen) + "@x.com"

		_, err := f.service.CreateUser(ctx, in, png(t))

		var v domain.Violations
		require.ErrorAs(t, err, &v)
		assert.Equal(t, "Email address cannot exceed 320 characters", v.Error())
		assert.Empty(t, f.store.files)
	})

	t.Run("file is checked before the record", func(t *testing.T) {
		f := newFixture()
		in := johnInput()
		in.FirstName = "A"

		_, err := f.service.CreateUser(ctx, in, fileHeader(t, "doc.pdf", "application/pdf", []byte("%PDF")))
		assert.ErrorIs(t, err, ErrInvalidFileType)
	})

	t.Run("known email", func(t *testing.T) {
		f := newFixture()
		f.repo.FetchUserByEmailFunc = func(_ context.Context, email string) (*domain.User, error) {
			assert.Equal(t, "john@x.com", email)
			return stored(johnInput()), nil
		}

		_, err := f.service.CreateUser(ctx, johnInput(), png(t))
		assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
		assert.Empty(t, f.store.files)
	})

	t.Run("lost insert race removes the stored picture", func(t *testing.T) {
		f := newFixture()
		f.repo.CreateUserFunc = func(context.Context, domain.User) (*domain.User, error) {
			return nil, domain.ErrDuplicateEmail
		}

		_, err := f.service.CreateUser(ctx, johnInput(), png(t))
		assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
		assert.Empty(t, f.store.files)
		assert.Empty(t, f.events.events)
	})

	t.Run("lookup failure", func(t *testing.T) {
		f := newFixture()
		f.repo.FetchUserByEmailFunc = func(context.Context, string) (*domain.User, error) {
			return nil, errors.New("db down")
		}

		_, err := f.service.CreateUser(ctx, johnInput(), nil)
		assert.EqualError(t, err, "db down")
	})

	t.Run("broker failure does not fail the request", func(t *testing.T) {
		f := newFixture()
		f.events.err = errors.New("broker down")
		f.repo.CreateUserFunc = func(_ context.Context, u domain.User) (*domain.User, error) {
			return stored(u), nil
		}

		_, err := f.service.CreateUser(ctx, johnInput(), nil)
		assert.NoError(t, err)
		assert.Equal(t, 1.0, counterValue(t, f.service.mCounter, "event_publish_failed_total"))
	})
}

func TestUserService_UpdateUser(t *testing.T) {
	ctx := context.Background()
	oldPic := "/uploads/old.png"

	current := func() *domain.User {
		u := stored(domain.Normalize(johnInput()))
		u.ProfilePicture = &oldPic
		return u
	}

	t.Run("unknown id wins over a bad file", func(t *testing.T) {
		f := newFixture()
		f.repo.FetchUserByIDFunc = func(context.Context, string) (*domain.User, error) {
			return nil, domain.ErrNotFound
		}

		_, err := f.service.UpdateUser(ctx, uuid.NewString(), domain.Patch{},
			fileHeader(t, "doc.pdf", "application/pdf", []byte("%PDF")))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("merged record is revalidated", func(t *testing.T) {
		f := newFixture()
		f.repo.FetchUserByIDFunc = func(context.Context, string) (*domain.User, error) { return current(), nil }
		gender := "X"

		_, err := f.service.UpdateUser(ctx, uuid.NewString(), domain.Patch{Gender: &gender}, nil)

		var v domain.Violations
		require.ErrorAs(t, err, &v)
		assert.Equal(t, "Gender must be either 'M' or 'F'", v.Error())
	})

	t.Run("long email in a patch is a violation", func(t *testing.T) {
		f := newFixture()
		f.repo.FetchUserByIDFunc = func(context.Context, string) (*domain.User, error) { return current(), nil }
		f.repo.UpdateUserFunc = func(context.Context, string, domain.Patch) (*domain.User, error) {
			t.Fatal("update must not run")
			return nil, nil
		}
		email := strings.Repeat("b", domain.EmailMaxLen) + "@x.com"

		_, err := f.service.UpdateUser(ctx, uuid.NewString(), domain.Patch{Email: &email}, nil)

		var v domain.Violations
		require.ErrorAs(t, err, &v)
		assert.Equal(t, "email", v[0].Field)
	})

	t.Run("empty patch", func(t *testing.T) {
		f := newFixture()
		cur := current()
		f.repo.FetchUserByIDFunc = func(context.Context, string) (*domain.User, error) { return cur, nil }
		f.repo.UpdateUserFunc = func(_ context.Context, id string, p domain.Patch) (*domain.User, error) {
			assert.True(t, p.IsEmpty())
			return cur, nil
		}

		got, err := f.service.UpdateUser(ctx, cur.ID.String(), domain.Patch{}, nil)
		require.NoError(t, err)
		assert.Equal(t, cur, got)
		require.Len(t, f.events.events, 1)
		assert.Equal(t, http.MethodPut, f.events.events[0].Method)
	})

	t.Run("new picture replaces the old one", func(t *testing.T) {
		f := newFixture()
		f.store.files["old.png"] = []byte{1}
		cur := current()
		email := " NEW@x.com"
		f.repo.FetchUserByIDFunc = func(context.Context, string) (*domain.User, error) { return cur, nil }
		f.repo.UpdateUserFunc = func(_ context.Context, _ string, p domain.Patch) (*domain.User, error) {
			require.NotNil(t, p.ProfilePicture)
			assert.NotEqual(t, oldPic, *p.ProfilePicture)
			require.NotNil(t, p.Email)
			assert.Equal(t, "new@x.com", *p.Email)
			u := p.Apply(*cur)
			return &u, nil
		}

		got, err := f.service.UpdateUser(ctx, cur.ID.String(), domain.Patch{Email: &email}, png(t))
		require.NoError(t, err)

		_, oldStillThere := f.store.files["old.png"]
		assert.False(t, oldStillThere)
		name, ok := StoredName(*got.ProfilePicture)
		require.True(t, ok)
		assert.Contains(t, f.store.files, name)
	})

	t.Run("failed update keeps the old picture", func(t *testing.T) {
		f := newFixture()
		f.store.files["old.png"] = []byte{1}
		f.repo.FetchUserByIDFunc = func(context.Context, string) (*domain.User, error) { return current(), nil }
		f.repo.UpdateUserFunc = func(context.Context, string, domain.Patch) (*domain.User, error) {
			return nil, domain.ErrDuplicateEmail
		}

		_, err := f.service.UpdateUser(ctx, uuid.NewString(), domain.Patch{}, png(t))
		assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
		assert.Len(t, f.store.files, 1)
		assert.Contains(t, f.store.files, "old.png")
	})

	t.Run("malformed id", func(t *testing.T) {
		f := newFixture()
		f.repo.FetchUserByIDFunc = func(context.Context, string) (*domain.User, error) {
			return nil, domain.ErrInvalidID
		}

		_, err := f.service.UpdateUser(ctx, "42", domain.Patch{}, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidID)
	})
}

func TestUserService_DeleteUser(t *testing.T) {
	ctx := context.Background()

	t.Run("record and picture are removed", func(t *testing.T) {
		f := newFixture()
		f.store.files["a.png"] = []byte{1}
		pic := "/uploads/a.png"
		f.repo.DeleteUserFunc = func(context.Context, string) (*domain.User, error) {
			u := stored(johnInput())
			u.ProfilePicture = &pic
			return u, nil
		}

		require.NoError(t, f.service.DeleteUser(ctx, uuid.NewString()))
		assert.Empty(t, f.store.files)
		require.Len(t, f.events.events, 1)
		assert.Equal(t, http.MethodDelete, f.events.events[0].Method)
	})

	t.Run("missing picture file is tolerated", func(t *testing.T) {
		f := newFixture()
		pic := "/uploads/gone.png"
		f.repo.DeleteUserFunc = func(context.Context, string) (*domain.User, error) {
			u := stored(johnInput())
			u.ProfilePicture = &pic
			return u, nil
		}

		assert.NoError(t, f.service.DeleteUser(ctx, uuid.NewString()))
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture()
		f.repo.DeleteUserFunc = func(context.Context, string) (*domain.User, error) {
			return nil, domain.ErrNotFound
		}

		assert.ErrorIs(t, f.service.DeleteUser(ctx, uuid.NewString()), domain.ErrNotFound)
		assert.Empty(t, f.events.events)
	})
}

func TestUserService_Find(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	u := stored(johnInput())
	f.repo.FetchUsersFunc = func(context.Context) (domain.Users, error) { return domain.Users{u}, nil }
	f.repo.FetchUserByIDFunc = func(_ context.Context, id string) (*domain.User, error) {
		if id != u.ID.String() {
			return nil, domain.ErrNotFound
		}
		return u, nil
	}

	all, err := f.service.FindUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	got, err := f.service.FindUserByID(ctx, u.ID.String())
	require.NoError(t, err)
	assert.Equal(t, u, got)

	_, err = f.service.FindUserByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

package testutil

import (
	"context"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/prizeloop/backend/internal/entity"
	"github.com/prizeloop/backend/internal/repository"
	"github.com/prizeloop/backend/pkg/crypto"
)

// SampleUser creates a user with randomized fields. Non-zero fields of init
// overwrite the sample before it is persisted.
func SampleUser(ctx context.Context, init *entity.User) (entity.User, error) {
	userRepo := repository.NewUserRepository()

	sample := &entity.User{
		Base:         entity.Base{ID: uuid.NewString()},
		Name:         uuid.NewString(),
		Email:        uuid.NewString() + "@example.com",
		ReferralCode: crypto.GenerateRandomAlphabet(8),
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	if err := userRepo.Create(ctx, sample); err != nil {
		return *sample, err
	}

	return *sample, nil
}

// SampleDraw creates an active major draw accepting entries for the next
// day. Non-zero fields of init overwrite the sample before it is persisted.
func SampleDraw(ctx context.Context, init *entity.Draw) (entity.Draw, error) {
	drawRepo := repository.NewDrawRepository()

	now := time.Now()
	sample := &entity.Draw{
		Base:      entity.Base{ID: uuid.NewString()},
		Name:      uuid.NewString(),
		Type:      entity.DrawMajor,
		Status:    entity.DrawActive,
		DrawDate:  now.Add(24 * time.Hour),
		PrizeName: uuid.NewString(),
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	if err := drawRepo.Create(ctx, sample); err != nil {
		return *sample, err
	}

	return *sample, nil
}

func overwriteFields[T any](origin *T, overwrite T) {
	originValue := reflect.ValueOf(origin).Elem()
	overwriteValue := reflect.ValueOf(overwrite)

	for i := 0; i < overwriteValue.NumField(); i++ {
		overwriteField := overwriteValue.Field(i)
		if !reflect.DeepEqual(overwriteField.Interface(), reflect.Zero(overwriteField.Type()).Interface()) {
			originValue.Field(i).Set(overwriteField)
		}
	}
}

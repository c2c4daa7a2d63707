package mocks

import (
	context "context"
	time "time"

	databases "github.com/juddisjudd/paxdeiclans/databases"
	models "github.com/juddisjudd/paxdeiclans/models"
	mock "github.com/stretchr/testify/mock"
)

// UserDatabase is a mock type for the UserDatabase type
type UserDatabase struct {
	mock.Mock
}

// FindOne provides a mock function with given fields: ctx, filter
func (_m *UserDatabase) FindOne(ctx context.Context, filter interface{}) databases.SingleResultHelper {
	ret := _m.Called(ctx, filter)

	var r0 databases.SingleResultHelper
	if rf, ok := ret.Get(0).(func(context.Context, interface{}) databases.SingleResultHelper); ok {
		r0 = rf(ctx, filter)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(databases.SingleResultHelper)
	}

	return r0
}

// Upsert provides a mock function with given fields: ctx, user, now
func (_m *UserDatabase) Upsert(ctx context.Context, user models.User, now time.Time) error {
	ret := _m.Called(ctx, user, now)
	return ret.Error(0)
}

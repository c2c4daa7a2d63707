package mocks

import (
	context "context"

	databases "github.com/juddisjudd/paxdeiclans/databases"
	models "github.com/juddisjudd/paxdeiclans/models"
	mock "github.com/stretchr/testify/mock"
	mongo "go.mongodb.org/mongo-driver/mongo"
	options "go.mongodb.org/mongo-driver/mongo/options"
)

// ClanDatabase is a mock type for the ClanDatabase type
type ClanDatabase struct {
	mock.Mock
}

// CountDocuments provides a mock function with given fields: ctx, filter, opts
func (_m *ClanDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	_va := make([]interface{}, len(opts))
	for _i := range opts {
		_va[_i] = opts[_i]
	}
	var _ca []interface{}
	_ca = append(_ca, ctx, filter)
	_ca = append(_ca, _va...)
	ret := _m.Called(_ca...)

	var r0 int64
	if rf, ok := ret.Get(0).(func(context.Context, interface{}, ...*options.CountOptions) int64); ok {
		r0 = rf(ctx, filter, opts...)
	} else {
		r0 = ret.Get(0).(int64)
	}

	return r0, ret.Error(1)
}

// EnsureIndexes provides a mock function with given fields: ctx
func (_m *ClanDatabase) EnsureIndexes(ctx context.Context) error {
	ret := _m.Called(ctx)
	return ret.Error(0)
}

// Find provides a mock function with given fields: ctx, filter, opts
func (_m *ClanDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (databases.CursorHelper, error) {
	_va := make([]interface{}, len(opts))
	for _i := range opts {
		_va[_i] = opts[_i]
	}
	var _ca []interface{}
	_ca = append(_ca, ctx, filter)
	_ca = append(_ca, _va...)
	ret := _m.Called(_ca...)

	var r0 databases.CursorHelper
	if rf, ok := ret.Get(0).(func(context.Context, interface{}, ...*options.FindOptions) databases.CursorHelper); ok {
		r0 = rf(ctx, filter, opts...)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(databases.CursorHelper)
	}

	return r0, ret.Error(1)
}

// FindOne provides a mock function with given fields: ctx, filter, opts
func (_m *ClanDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) databases.SingleResultHelper {
	_va := make([]interface{}, len(opts))
	for _i := range opts {
		_va[_i] = opts[_i]
	}
	var _ca []interface{}
	_ca = append(_ca, ctx, filter)
	_ca = append(_ca, _va...)
	ret := _m.Called(_ca...)

	var r0 databases.SingleResultHelper
	if rf, ok := ret.Get(0).(func(context.Context, interface{}, ...*options.FindOneOptions) databases.SingleResultHelper); ok {
		r0 = rf(ctx, filter, opts...)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(databases.SingleResultHelper)
	}

	return r0
}

// FindOneAndUpdate provides a mock function with given fields: ctx, filter, update, opts
func (_m *ClanDatabase) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) databases.SingleResultHelper {
	_va := make([]interface{}, len(opts))
	for _i := range opts {
		_va[_i] = opts[_i]
	}
	var _ca []interface{}
	_ca = append(_ca, ctx, filter, update)
	_ca = append(_ca, _va...)
	ret := _m.Called(_ca...)

	var r0 databases.SingleResultHelper
	if rf, ok := ret.Get(0).(func(context.Context, interface{}, interface{}, ...*options.FindOneAndUpdateOptions) databases.SingleResultHelper); ok {
		r0 = rf(ctx, filter, update, opts...)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(databases.SingleResultHelper)
	}

	return r0
}

// InsertOne provides a mock function with given fields: ctx, clan
func (_m *ClanDatabase) InsertOne(ctx context.Context, clan models.Clan) (databases.InsertOneResultHelper, error) {
	ret := _m.Called(ctx, clan)

	var r0 databases.InsertOneResultHelper
	if rf, ok := ret.Get(0).(func(context.Context, models.Clan) databases.InsertOneResultHelper); ok {
		r0 = rf(ctx, clan)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(databases.InsertOneResultHelper)
	}

	return r0, ret.Error(1)
}

// UpdateMany provides a mock function with given fields: ctx, filter, update, opts
func (_m *ClanDatabase) UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	_va := make([]interface{}, len(opts))
	for _i := range opts {
		_va[_i] = opts[_i]
	}
	var _ca []interface{}
	_ca = append(_ca, ctx, filter, update)
	_ca = append(_ca, _va...)
	ret := _m.Called(_ca...)

	var r0 *mongo.UpdateResult
	if rf, ok := ret.Get(0).(func(context.Context, interface{}, interface{}, ...*options.UpdateOptions) *mongo.UpdateResult); ok {
		r0 = rf(ctx, filter, update, opts...)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*mongo.UpdateResult)
	}

	return r0, ret.Error(1)
}

// UpdateOne provides a mock function with given fields: ctx, filter, update, opts
func (_m *ClanDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	_va := make([]interface{}, len(opts))
	for _i := range opts {
		_va[_i] = opts[_i]
	}
	var _ca []interface{}
	_ca = append(_ca, ctx, filter, update)
	_ca = append(_ca, _va...)
	ret := _m.Called(_ca...)

	var r0 *mongo.UpdateResult
	if rf, ok := ret.Get(0).(func(context.Context, interface{}, interface{}, ...*options.UpdateOptions) *mongo.UpdateResult); ok {
		r0 = rf(ctx, filter, update, opts...)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*mongo.UpdateResult)
	}

	return r0, ret.Error(1)
}

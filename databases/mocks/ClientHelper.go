package mocks

import (
	context "context"

	databases "github.com/juddisjudd/paxdeiclans/databases"
	mock "github.com/stretchr/testify/mock"
)

// ClientHelper is a mock type for the ClientHelper type
type ClientHelper struct {
	mock.Mock
}

// Connect provides a mock function with given fields:
func (_m *ClientHelper) Connect() error {
	ret := _m.Called()
	return ret.Error(0)
}

// Database provides a mock function with given fields: _a0
func (_m *ClientHelper) Database(_a0 string) databases.DatabaseHelper {
	ret := _m.Called(_a0)

	var r0 databases.DatabaseHelper
	if rf, ok := ret.Get(0).(func(string) databases.DatabaseHelper); ok {
		r0 = rf(_a0)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(databases.DatabaseHelper)
	}

	return r0
}

// Disconnect provides a mock function with given fields: _a0
func (_m *ClientHelper) Disconnect(_a0 context.Context) error {
	ret := _m.Called(_a0)
	return ret.Error(0)
}

// Ping provides a mock function with given fields: _a0
func (_m *ClientHelper) Ping(_a0 context.Context) error {
	ret := _m.Called(_a0)
	return ret.Error(0)
}

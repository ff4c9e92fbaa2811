package service

import (
	log "github.com/sirupsen/logrus"
)

// StatusCode is the outcome of a service operation. It is not an HTTP status.
type StatusCode int

const (
	StatusOK StatusCode = iota
	StatusTaskAlreadyExists
	StatusTaskNotFound
	StatusInternalServerError
)

func (s StatusCode) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusTaskAlreadyExists:
		return "TaskAlreadyExists"
	case StatusTaskNotFound:
		return "TaskNotFound"
	case StatusInternalServerError:
		return "InternalServerError"
	default:
		return "Unknown"
	}
}

// Response is the envelope every TaskService operation returns.
type Response[T any] struct {
	StatusCode  StatusCode
	Description string
	Data        T
}

func (r Response[T]) OK() bool {
	return r.StatusCode == StatusOK
}

// failure logs err under op and reports it verbatim as an internal error.
func failure[T any](logger *log.Logger, op string, err error, fields log.Fields) Response[T] {
	logger.WithFields(fields).WithField("op", op).WithError(err).Errorf("[%s]: %v", op, err)
	return Response[T]{
		StatusCode:  StatusInternalServerError,
		Description: err.Error(),
	}
}

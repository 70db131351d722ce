package model

// Status is the lifecycle of a fetched value
type Status string

const (
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Result keeps "not fetched yet" and "fetch failed" apart from an empty
// successful answer.
type Result[T any] struct {
	Status Status `json:"status"`
	Data   T      `json:"data"`
	Error  string `json:"error,omitempty"`
	err    error
}

func Loading[T any]() Result[T] {
	return Result[T]{Status: StatusLoading}
}

// LoadingWith keeps the previous data visible while a refetch is in flight
func LoadingWith[T any](prev T) Result[T] {
	return Result[T]{Status: StatusLoading, Data: prev}
}

func Success[T any](data T) Result[T] {
	return Result[T]{Status: StatusSuccess, Data: data}
}

func Failure[T any](err error) Result[T] {
	r := Result[T]{Status: StatusFailure, err: err}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Err returns the failure cause, nil unless Status is StatusFailure
func (r Result[T]) Err() error {
	return r.err
}

func (r Result[T]) IsLoading() bool { return r.Status == StatusLoading }
func (r Result[T]) IsSuccess() bool { return r.Status == StatusSuccess }
func (r Result[T]) IsFailure() bool { return r.Status == StatusFailure }

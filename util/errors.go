package util

import (
	"errors"
	"strings"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type ErrorCollector interface {
	Add(err error)
	Combined() error
}

type errorCollector struct {
	errors []error
	lock   *sync.Mutex
}

func NewErrorCollector() ErrorCollector {
	return &errorCollector{
		lock: &sync.Mutex{},
	}
}

func (s *errorCollector) Add(err error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.errors = append(s.errors, err)
}

func (s *errorCollector) Combined() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if len(s.errors) > 0 {
		return errors.Join(s.errors...)
	}

	return nil
}

// IsNeoTimeoutError returns true if the error, or any error it wraps, reports a neo4j transaction timeout.
func IsNeoTimeoutError(err error) bool {
	var neoErr *neo4j.Neo4jError

	switch {
	case err == nil:
		return false
	case errors.As(err, &neoErr):
		return strings.Contains(neoErr.Code, "TransactionTimedOut")
	default:
		return strings.Contains(err.Error(), "Neo.ClientError.Transaction.TransactionTimedOut")
	}
}

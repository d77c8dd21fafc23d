package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/scorecast/platform/internal/domain"
	"github.com/scorecast/platform/internal/repository"
)

// URLUUID parses a chi path parameter as a UUID.
func URLUUID(r *http.Request, param, entity string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, domain.ErrValidation("invalid " + entity + " id")
	}
	return id, nil
}

// ParseMatchFilter reads finished, from, to and limit from the query string.
func ParseMatchFilter(r *http.Request) (repository.MatchFilter, error) {
	var f repository.MatchFilter
	q := r.URL.Query()

	if v := q.Get("finished"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, domain.ErrValidation("finished must be true or false")
		}
		f.Finished = &b
	}
	if v := q.Get("from"); v != "" {
		t, err := domain.ParseLocalTime(v)
		if err != nil {
			return f, domain.ErrValidation("from: " + err.Error())
		}
		f.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := domain.ParseLocalTime(v)
		if err != nil {
			return f, domain.ErrValidation("to: " + err.Error())
		}
		f.To = &t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			return f, domain.ErrValidation("limit must be between 1 and 500")
		}
		f.Limit = n
	}
	return f, nil
}

package service

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog"

	"storefront-service/internal/apperr"
	"storefront-service/internal/repository"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Publisher emits entity snapshots to the realtime stream.
type Publisher interface {
	Publish(ctx context.Context, entity, event, id string, snapshot interface{}) error
}

// storeError turns a repository failure into an application error. what
// names the record for not-found messages.
func storeError(err error, what string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(what + " not found")
	case errors.Is(err, repository.ErrDuplicate):
		return apperr.Conflict(what + " already exists")
	case errors.Is(err, repository.ErrInsufficientStock):
		return apperr.Validation("quantity", "not enough stock available")
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.External("something went wrong, please try again", err)
}

func publish(ctx context.Context, p Publisher, entity, event, id string, snapshot interface{}) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, entity, event, id, snapshot); err != nil {
		logger.Error().Err(err).Msgf("Error publishing %s.%s.%s", entity, event, id)
	}
}

package ingest

import (
	"context"
	"errors"
	"strings"

	"lexiscope/internal/model"
	"lexiscope/internal/store/postcache"
	"lexiscope/internal/xclient"
)

// ResolveAccounts maps handles to accounts, preferring the local
// cache and resolving the rest through the API. Resolved accounts
// come back in input order; handles the API does not know are
// returned separately so one typo does not sink a whole run.
func ResolveAccounts(ctx context.Context, db *postcache.DB, client xclient.Client, handles []string) ([]model.Account, []string, error) {
	byHandle := make(map[string]model.Account, len(handles))
	var pending []string
	for _, h := range handles {
		a, ok, err := db.LookupAccount(ctx, h)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			byHandle[strings.ToLower(h)] = a
			continue
		}
		pending = append(pending, h)
	}

	store := func(a model.Account) error {
		if err := db.UpsertAccount(ctx, a); err != nil {
			return err
		}
		byHandle[strings.ToLower(a.Handle)] = a
		return nil
	}

	if len(pending) == 1 {
		a, err := client.GetUserByUsername(ctx, pending[0])
		switch {
		case errors.Is(err, xclient.ErrNotFound):
			// falls out as missing below
		case err != nil:
			return nil, nil, err
		default:
			if err := store(a); err != nil {
				return nil, nil, err
			}
		}
		pending = nil
	}

	// batch by 100
	for i := 0; i < len(pending); i += 100 {
		end := i + 100
		if end > len(pending) {
			end = len(pending)
		}
		accounts, err := client.GetUsersByUsernames(ctx, pending[i:end])
		if err != nil {
			return nil, nil, err
		}
		for _, a := range accounts {
			if err := store(a); err != nil {
				return nil, nil, err
			}
		}
	}

	out := make([]model.Account, 0, len(handles))
	var missing []string
	for _, h := range handles {
		a, ok := byHandle[strings.ToLower(h)]
		if !ok {
			missing = append(missing, h)
			continue
		}
		out = append(out, a)
	}
	return out, missing, nil
}

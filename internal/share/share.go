// Package share redeems share links and builds them for the user's own list.
package share

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/dukerupert/list42/internal/cache"
	"github.com/dukerupert/list42/internal/model"
	"github.com/dukerupert/list42/internal/toast"
)

// Param is the query parameter carrying a share code.
const Param = "shared"

var ErrNoShareCode = errors.New("share: list store returned no share code")

// Remote is the part of the list store used for sharing.
type Remote interface {
	RedeemShareCode(ctx context.Context, code string) (*model.GroceryList, error)
	GetShareCode(ctx context.Context) (string, error)
}

// Result describes a redemption attempt. URL is the input with the share
// parameter removed; ListID is set only when a list was redeemed.
type Result struct {
	Redeemed bool
	ListID   string
	URL      string
}

type Redeemer struct {
	remote   Remote
	cache    *cache.Store
	notifier toast.Notifier
	logger   *slog.Logger
}

func NewRedeemer(remote Remote, store *cache.Store, notifier toast.Notifier, logger *slog.Logger) *Redeemer {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = toast.LogNotifier{Logger: logger}
	}
	return &Redeemer{remote: remote, cache: store, notifier: notifier, logger: logger}
}

// Redeem looks for a share code in rawURL and, when one is present, asks the
// list store to add the caller to that list. The code is stripped from the
// returned URL whether or not redemption worked, so a failing code is tried
// once. A URL without a code is returned unchanged.
func (r *Redeemer) Redeem(ctx context.Context, rawURL string) (Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Result{URL: rawURL}, fmt.Errorf("parse share url: %w", err)
	}
	q := u.Query()
	if !q.Has(Param) {
		return Result{URL: rawURL}, nil
	}
	code := strings.TrimSpace(q.Get(Param))
	q.Del(Param)
	u.RawQuery = q.Encode()
	res := Result{URL: u.String()}

	if code == "" {
		r.logger.Warn("empty share code ignored")
		return res, nil
	}
	return r.redeem(ctx, code, res)
}

// RedeemCode redeems a bare share code.
func (r *Redeemer) RedeemCode(ctx context.Context, code string) (Result, error) {
	return r.redeem(ctx, strings.TrimSpace(code), Result{})
}

func (r *Redeemer) redeem(ctx context.Context, code string, res Result) (Result, error) {
	list, err := r.remote.RedeemShareCode(ctx, code)
	if err == nil && (list == nil || list.ID == "") {
		err = errors.New("list store returned no list")
	}
	if err != nil {
		r.logger.Error("share code redemption failed", "error", err)
		r.notifier.Show(toast.ShareRedeemError, toast.Error)
		return res, fmt.Errorf("redeem share code: %w", err)
	}

	r.cache.Invalidate(cache.TagLists)
	r.cache.Commit(list.ID, list)
	r.logger.Info("share code redeemed", "list_id", list.ID)

	res.Redeemed = true
	res.ListID = list.ID
	return res, nil
}

// Link returns baseURL with the share code of the caller's own list
// attached.
func (r *Redeemer) Link(ctx context.Context, baseURL string) (string, error) {
	code, err := r.remote.GetShareCode(ctx)
	if err == nil && code == "" {
		err = ErrNoShareCode
	}
	if err != nil {
		r.logger.Error("share code lookup failed", "error", err)
		r.notifier.Show(toast.ShareCodeError, toast.Error)
		return "", fmt.Errorf("get share code: %w", err)
	}
	return Link(baseURL, code)
}

// Link attaches code to baseURL as the share parameter.
func Link(baseURL, code string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set(Param, code)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	domain "github.com/aq2208/gorder-checkout/internal/entity"
	"github.com/aq2208/gorder-checkout/internal/usecase"
)

// Client reads products and packages from the storefront catalog service.
type Client struct {
	base    string
	http    *http.Client
	timeout time.Duration
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Client{
		base:    strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: timeout,
	}
}

type productResponse struct {
	OK      bool            `json:"ok"`
	Product *domain.Product `json:"product"`
}

type packageResponse struct {
	OK      bool            `json:"ok"`
	Package *domain.Package `json:"package"`
}

func (c *Client) Product(ctx context.Context, id string) (domain.Product, error) {
	var resp productResponse
	found, err := c.get(ctx, "/products/"+url.PathEscape(id), &resp)
	if err != nil {
		return domain.Product{}, errors.Wrapf(err, "catalog product %s", id)
	}
	if !found || !resp.OK || resp.Product == nil {
		return domain.Product{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	return *resp.Product, nil
}

func (c *Client) Package(ctx context.Context, slug string) (domain.Package, error) {
	var resp packageResponse
	found, err := c.get(ctx, "/packages/"+url.PathEscape(slug), &resp)
	if err != nil {
		return domain.Package{}, errors.Wrapf(err, "catalog package %s", slug)
	}
	if !found || !resp.OK || resp.Package == nil {
		return domain.Package{}, fmt.Errorf("%w: %s", domain.ErrPackageNotFound, slug)
	}
	p := *resp.Package
	if p.Slug == "" {
		p.Slug = slug
	}
	if p.Kind == "" {
		p.Kind = domain.KindForSlug(p.Slug)
	}
	return p, nil
}

func (c *Client) get(ctx context.Context, path string, out any) (bool, error) {
	// ensure per-call timeout if caller didn't set one
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return false, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode != http.StatusOK:
		return false, errors.Errorf("unexpected status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, errors.Wrap(err, "decode response")
	}
	return true, nil
}

var _ usecase.CatalogLookup = (*Client)(nil)

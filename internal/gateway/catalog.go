package gateway

import (
	"context"
	"net/http"
	"strconv"

	"github.com/iliyamo/car-rental-reservation/internal/model"
)

// Catalog reads the public fleet, branch and extras listings.
type Catalog struct {
	c *Client
}

func NewCatalog(c *Client) *Catalog { return &Catalog{c: c} }

func (k *Catalog) Vehicles(ctx context.Context) ([]model.CatalogVehicle, error) {
	var out struct {
		Items []model.CatalogVehicle `json:"items"`
	}
	if err := k.c.do(ctx, http.MethodGet, "/v1/vehicles", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (k *Catalog) Vehicle(ctx context.Context, id uint64) (model.CatalogVehicle, error) {
	var out model.CatalogVehicle
	err := k.c.do(ctx, http.MethodGet, "/v1/vehicles/"+strconv.FormatUint(id, 10), nil, nil, &out)
	return out, err
}

func (k *Catalog) Locations(ctx context.Context) ([]model.Location, error) {
	var out struct {
		Items []model.Location `json:"items"`
	}
	if err := k.c.do(ctx, http.MethodGet, "/v1/locations", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (k *Catalog) Location(ctx context.Context, id uint64) (model.Location, error) {
	var out model.Location
	err := k.c.do(ctx, http.MethodGet, "/v1/locations/"+strconv.FormatUint(id, 10), nil, nil, &out)
	return out, err
}

// Extras lists the extra services on offer; none are selected.
func (k *Catalog) Extras(ctx context.Context) ([]model.ExtraService, error) {
	var out struct {
		Items []model.ExtraService `json:"items"`
	}
	if err := k.c.do(ctx, http.MethodGet, "/v1/extras", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

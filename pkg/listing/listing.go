// Package listing defines the listing records and tile response exchanged
// between the tile server and map clients.
package listing

import "github.com/yourorg/mapsearch/pkg/geo"

// OpenHouse is a scheduled open house joined onto a listing.
type OpenHouse struct {
	Start   string `json:"start"`
	End     string `json:"end,omitempty"`
	Remarks string `json:"remarks,omitempty"`
}

// Photo is one stored photo with its size variants.
type Photo struct {
	ListingKey string `json:"listingKey"`
	Large      string `json:"large,omitempty"`
	Medium     string `json:"medium,omitempty"`
	Small      string `json:"small,omitempty"`
	Primary    bool   `json:"primary"`
	Order      int    `json:"order"`
}

// Listing is immutable once fetched; refreshes replace it wholesale.
type Listing struct {
	ListingKey      string   `json:"listingKey"`
	Slug            string   `json:"slug,omitempty"`
	Address         string   `json:"address,omitempty"`
	City            string   `json:"city,omitempty"`
	SubdivisionName string   `json:"subdivisionName,omitempty"`
	Latitude        float64  `json:"latitude"`
	Longitude       float64  `json:"longitude"`
	ListPrice       float64  `json:"listPrice"`
	BedsTotal       *float64 `json:"bedsTotal,omitempty"`
	BathroomsTotal  *float64 `json:"bathroomsTotal,omitempty"`
	LivingArea      *float64 `json:"livingArea,omitempty"`
	LotSizeSqft     *float64 `json:"lotSizeSqft,omitempty"`
	YearBuilt       *int     `json:"yearBuilt,omitempty"`
	GarageSpaces    *float64 `json:"garageSpaces,omitempty"`
	AssociationFee  *float64 `json:"associationFee,omitempty"`
	PropertyType    string   `json:"propertyType"`
	PropertySubType string   `json:"propertySubType,omitempty"`
	LandType        string   `json:"landType,omitempty"`
	MLSSource       string   `json:"mlsSource"`
	ListDate        string   `json:"listDate,omitempty"`

	PrimaryPhotoURL string      `json:"primaryPhotoUrl"`
	OpenHouses      []OpenHouse `json:"openHouses"`

	HasPool  bool `json:"hasPool"`
	HasSpa   bool `json:"hasSpa"`
	HasView  bool `json:"hasView"`
	HasHOA   bool `json:"hasHOA"`
	IsGated  bool `json:"isGated"`
	IsSenior bool `json:"isSenior"`
}

// TotalCount is the uncapped match count and its per-source breakdown.
type TotalCount struct {
	Total    int            `json:"total"`
	BySource map[string]int `json:"bySource"`
}

// TileInfo echoes the tile address and the bounds that were queried.
type TileInfo struct {
	Z      int        `json:"z"`
	X      int        `json:"x"`
	Y      int        `json:"y"`
	Bounds geo.Bounds `json:"bounds"`
}

// TileResponse is the body returned by the tile endpoint.
type TileResponse struct {
	Listings   []Listing  `json:"listings"`
	TotalCount TotalCount `json:"totalCount"`
	Tile       TileInfo   `json:"tile"`
	Limit      int        `json:"limit"`
}

// Cluster aggregates the matching listings of one grid cell.
type Cluster struct {
	ID            string  `json:"id"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Count         int     `json:"count"`
	MinPrice      float64 `json:"minPrice"`
	MaxPrice      float64 `json:"maxPrice"`
	AvgPrice      float64 `json:"avgPrice"`
	ExpansionZoom int     `json:"expansionZoom"`
}

// ClusterResponse is the body returned by the cluster endpoint. Clustered
// responses carry clusters and no listings; at high zoom it is the reverse.
type ClusterResponse struct {
	Clusters   []Cluster  `json:"clusters"`
	Listings   []Listing  `json:"listings"`
	Clustered  bool       `json:"clustered"`
	GridSize   float64    `json:"gridSize,omitempty"`
	TotalCount TotalCount `json:"totalCount"`
	Tile       TileInfo   `json:"tile"`
}

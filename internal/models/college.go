package models

import "time"

// Region groups colleges geographically.
type Region struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// College is an institution whose students register on the portal.
type College struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Code       string    `db:"code" json:"code"`
	RegionID   string    `db:"region_id" json:"region_id"`
	RegionName string    `db:"region_name" json:"region_name"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// CreateRegionRequest payload for adding a region.
type CreateRegionRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// CreateCollegeRequest payload for adding a college.
type CreateCollegeRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Code     string `json:"code" validate:"required,max=20"`
	RegionID string `json:"region_id" validate:"required"`
}

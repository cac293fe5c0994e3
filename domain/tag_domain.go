package domain

import (
	"errors"
)

var (
	MessageSuccessGetTags      = "success get tags"
	MessageSuccessGetTagDetail = "success get tag detail"
	MessageSuccessCreateTag    = "tag created successfully"
	MessageSuccessUpdateTag    = "tag updated successfully"
	MessageSuccessDeleteTag    = "tag deleted successfully"

	MessageFailedGetTags      = "failed to get tags"
	MessageFailedGetTagDetail = "failed to get tag detail"
	MessageFailedCreateTag    = "failed to create tag"
	MessageFailedUpdateTag    = "failed to update tag"
	MessageFailedDeleteTag    = "failed to delete tag"

	ErrTagNotFound = errors.New("tag not found")
	ErrSlugTaken   = errors.New("tag slug already in use")
)

type (
	CreateTagRequest struct {
		Name  string `json:"name" validate:"required,max=20"`
		Color string `json:"color" validate:"required,max=16"`
		Slug  string `json:"slug" validate:"required,max=50"`
	}

	UpdateTagRequest struct {
		Name  string `json:"name" validate:"omitempty,max=20"`
		Color string `json:"color" validate:"omitempty,max=16"`
		Slug  string `json:"slug" validate:"omitempty,max=50"`
	}

	TagResponse struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
		Slug  string `json:"slug"`
	}
)

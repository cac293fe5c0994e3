package tag

import (
	"context"
	"errors"

	"foodgram-backend/domain"
	"foodgram-backend/entities"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	TagService interface {
		GetTags(ctx context.Context) ([]domain.TagResponse, error)
		GetTagDetail(ctx context.Context, tagID string) (domain.TagResponse, error)
		CreateTag(ctx context.Context, req domain.CreateTagRequest, role string) (domain.TagResponse, error)
		UpdateTag(ctx context.Context, tagID string, req domain.UpdateTagRequest, role string) (domain.TagResponse, error)
		DeleteTag(ctx context.Context, tagID string, role string) error
	}

	tagService struct {
		tagRepository TagRepository
	}
)

func NewTagService(tagRepository TagRepository) TagService {
	return &tagService{tagRepository: tagRepository}
}

func TagToResponse(tag *entities.Tag) domain.TagResponse {
	return domain.TagResponse{
		ID:    tag.ID.String(),
		Name:  tag.Name,
		Color: tag.Color,
		Slug:  tag.Slug,
	}
}

func (s *tagService) GetTags(ctx context.Context) ([]domain.TagResponse, error) {
	tags, err := s.tagRepository.GetTags(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]domain.TagResponse, 0, len(tags))
	for _, t := range tags {
		res = append(res, TagToResponse(t))
	}
	return res, nil
}

func (s *tagService) GetTagDetail(ctx context.Context, tagID string) (domain.TagResponse, error) {
	tag, err := s.tagRepository.GetTagByID(ctx, tagID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.TagResponse{}, domain.ErrTagNotFound
		}
		return domain.TagResponse{}, err
	}
	return TagToResponse(tag), nil
}

func (s *tagService) CreateTag(ctx context.Context, req domain.CreateTagRequest, role string) (domain.TagResponse, error) {
	if role != domain.RoleAdmin {
		return domain.TagResponse{}, domain.ErrUserNotAllowed
	}

	existing, err := s.tagRepository.GetTagBySlug(ctx, req.Slug)
	if err != nil {
		return domain.TagResponse{}, err
	}
	if existing != nil {
		return domain.TagResponse{}, domain.ErrSlugTaken
	}

	tag := &entities.Tag{
		ID:    uuid.New(),
		Name:  req.Name,
		Color: req.Color,
		Slug:  req.Slug,
	}
	if err := s.tagRepository.CreateTag(ctx, tag); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.TagResponse{}, domain.ErrSlugTaken
		}
		return domain.TagResponse{}, err
	}
	return TagToResponse(tag), nil
}

func (s *tagService) UpdateTag(ctx context.Context, tagID string, req domain.UpdateTagRequest, role string) (domain.TagResponse, error) {
	if role != domain.RoleAdmin {
		return domain.TagResponse{}, domain.ErrUserNotAllowed
	}

	tag, err := s.tagRepository.GetTagByID(ctx, tagID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.TagResponse{}, domain.ErrTagNotFound
		}
		return domain.TagResponse{}, err
	}

	if req.Name != "" {
		tag.Name = req.Name
	}
	if req.Color != "" {
		tag.Color = req.Color
	}
	if req.Slug != "" && req.Slug != tag.Slug {
		existing, err := s.tagRepository.GetTagBySlug(ctx, req.Slug)
		if err != nil {
			return domain.TagResponse{}, err
		}
		if existing != nil {
			return domain.TagResponse{}, domain.ErrSlugTaken
		}
		tag.Slug = req.Slug
	}

	if err := s.tagRepository.UpdateTag(ctx, tag); err != nil {
		return domain.TagResponse{}, err
	}
	return TagToResponse(tag), nil
}

func (s *tagService) DeleteTag(ctx context.Context, tagID string, role string) error {
	if role != domain.RoleAdmin {
		return domain.ErrUserNotAllowed
	}

	if _, err := s.tagRepository.GetTagByID(ctx, tagID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrTagNotFound
		}
		return err
	}
	return s.tagRepository.DeleteTag(ctx, tagID)
}

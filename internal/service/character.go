package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"loot-tracker/internal/constants"
	"loot-tracker/internal/domain"
	"loot-tracker/internal/repository"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type CharacterService struct {
	characters *repository.CharacterCollection
	logger     zerolog.Logger
}

func NewCharacterService(characters *repository.CharacterCollection, logger zerolog.Logger) *CharacterService {
	return &CharacterService{
		characters: characters,
		logger:     logger,
	}
}

func (s *CharacterService) Create(ctx context.Context, name string) (domain.Character, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Character{}, fmt.Errorf("%w: character name is required", ErrValidation)
	}
	if utf8.RuneCountInString(name) > constants.MaxNameLength {
		return domain.Character{}, fmt.Errorf("%w: character name is longer than %d characters", ErrValidation, constants.MaxNameLength)
	}

	id, err := gonanoid.New()
	if err != nil {
		return domain.Character{}, fmt.Errorf("failed to generate character id: %w", err)
	}

	character := domain.Character{ID: id, Name: name}
	err = s.characters.AddIf(ctx, character, func(existing []domain.Character) error {
		for _, c := range existing {
			if strings.EqualFold(c.Name, name) {
				return fmt.Errorf("%w: this name already exists", ErrValidation)
			}
		}
		return nil
	})
	if errors.Is(err, ErrValidation) {
		return domain.Character{}, err
	}
	if err != nil {
		s.logger.Error().Err(err).Str("name", name).Msg("failed to add character")
		return domain.Character{}, err
	}

	s.logger.Info().Str("id", id).Str("name", name).Msg("character created")
	return character, nil
}

func (s *CharacterService) List() []domain.Character {
	return s.characters.List()
}

func (s *CharacterService) Get(id string) (domain.Character, bool) {
	return s.characters.Get(id)
}

// Delete leaves the character's runs in place; they render as Unknown.
func (s *CharacterService) Delete(ctx context.Context, id string) error {
	return s.characters.Remove(ctx, id)
}

func (s *CharacterService) Clear(ctx context.Context) error {
	return s.characters.ClearAll(ctx)
}

func (s *CharacterService) NameIndex() map[string]string {
	characters := s.characters.List()
	names := make(map[string]string, len(characters))
	for _, c := range characters {
		names[c.ID] = c.Name
	}
	return names
}

func (s *CharacterService) Name(id string) string {
	if c, ok := s.characters.Get(id); ok {
		return c.Name
	}
	return domain.UnknownCharacter
}

package server

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"loot-tracker/internal/domain"
	"loot-tracker/internal/runfilter"
	"loot-tracker/internal/service"
)

// criteriaFrom reads the run filters shared by listing and analytics.
// "all" is the same as leaving a filter out.
func criteriaFrom(q url.Values) (runfilter.Criteria, error) {
	c := runfilter.Criteria{
		CharacterID: anyToEmpty(q.Get("character")),
		Location:    anyToEmpty(q.Get("location")),
		Loot:        anyToEmpty(q.Get("loot")),
	}

	rarity, err := rarityParam(q, "rarity")
	if err != nil {
		return c, err
	}
	c.Rarity = rarity

	if day := strings.TrimSpace(q.Get("date")); day != "" {
		if _, err := time.Parse(domain.DayLayout, day); err != nil {
			return c, fmt.Errorf("%w: date must look like 2006-01-02", service.ErrValidation)
		}
		c.Day = day
	}

	if v := q.Get("exclude_chests"); v != "" {
		exclude, err := strconv.ParseBool(v)
		if err != nil {
			return c, fmt.Errorf("%w: exclude_chests must be a boolean", service.ErrValidation)
		}
		c.ExcludeChests = exclude
	}
	return c, nil
}

func rarityParam(q url.Values, key string) (domain.Rarity, error) {
	r, ok := domain.ParseRarity(q.Get(key))
	if !ok {
		return "", fmt.Errorf("%w: unknown %s %q", service.ErrValidation, key, q.Get(key))
	}
	return r, nil
}

func listQueryFrom(q url.Values) (service.ListQuery, error) {
	criteria, err := criteriaFrom(q)
	if err != nil {
		return service.ListQuery{}, err
	}
	field, ok := runfilter.ParseSortField(q.Get("sort"))
	if !ok {
		return service.ListQuery{}, fmt.Errorf("%w: unknown sort %q", service.ErrValidation, q.Get("sort"))
	}

	descending := field.DefaultDescending()
	switch strings.ToLower(q.Get("order")) {
	case "":
	case "asc":
		descending = false
	case "desc":
		descending = true
	default:
		return service.ListQuery{}, fmt.Errorf("%w: order must be asc or desc", service.ErrValidation)
	}

	return service.ListQuery{Criteria: criteria, Sort: field, Descending: descending}, nil
}

func reportQueryFrom(q url.Values) (service.ReportQuery, error) {
	criteria, err := criteriaFrom(q)
	if err != nil {
		return service.ReportQuery{}, err
	}
	streak, err := rarityParam(q, "streak_rarity")
	if err != nil {
		return service.ReportQuery{}, err
	}
	return service.ReportQuery{Criteria: criteria, StreakRarity: streak}, nil
}

func anyToEmpty(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, runfilter.AnyValue) {
		return ""
	}
	return v
}

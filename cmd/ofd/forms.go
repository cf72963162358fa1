package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/catalog"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/entitypath"
)

// promptEntity collects an entity payload of the given kind. A non-empty
// jsonPayload bypasses the interactive form entirely, keeping new/edit
// usable from scripts; otherwise a terminal form is shown, prefilled from
// existing when present.
func promptEntity(kind entitypath.Kind, existing catalog.Entity, jsonPayload string) (catalog.Entity, error) {
	if jsonPayload != "" {
		e, err := catalog.DecodeEntity(kind, json.RawMessage(jsonPayload))
		if err != nil {
			return nil, err
		}
		return e, nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, fmt.Errorf("no terminal attached; pass the payload with --json")
	}

	switch kind {
	case entitypath.KindStore:
		return storeForm(existing)
	case entitypath.KindBrand:
		return brandForm(existing)
	case entitypath.KindMaterial:
		return materialForm(existing)
	case entitypath.KindFilament:
		return filamentForm(existing)
	case entitypath.KindVariant:
		return variantForm(existing)
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
}

func storeForm(existing catalog.Entity) (catalog.Entity, error) {
	e, _ := existing.(catalog.Store)
	shipsFrom := strings.Join(e.ShipsFrom, ", ")
	shipsTo := strings.Join(e.ShipsTo, ", ")

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Store ID").Value(&e.ID).Validate(required("store ID")),
		huh.NewInput().Title("Name").Value(&e.Name),
		huh.NewInput().Title("Storefront URL").Value(&e.StorefrontURL),
		huh.NewInput().Title("Ships from (comma-separated)").Value(&shipsFrom),
		huh.NewInput().Title("Ships to (comma-separated)").Value(&shipsTo),
	))
	if err := form.Run(); err != nil {
		return nil, err
	}
	e.ShipsFrom = splitList(shipsFrom)
	e.ShipsTo = splitList(shipsTo)
	if e.Slug == "" {
		e.Slug = catalog.Slugify(e.Name)
	}
	return e, nil
}

func brandForm(existing catalog.Entity) (catalog.Entity, error) {
	e, _ := existing.(catalog.Brand)

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Brand name").Value(&e.Name).Validate(required("brand name")),
		huh.NewInput().Title("Website").Value(&e.Website),
		huh.NewInput().Title("Origin country").Value(&e.Origin),
	))
	if err := form.Run(); err != nil {
		return nil, err
	}
	e.Slug = catalog.Slugify(e.Name)
	return e, nil
}

func materialForm(existing catalog.Entity) (catalog.Entity, error) {
	e, _ := existing.(catalog.Material)

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Material").Value(&e.Material).Validate(required("material")),
		huh.NewSelect[string]().
			Title("Material class").
			Options(
				huh.NewOption("(unset)", ""),
				huh.NewOption("Standard", "standard"),
				huh.NewOption("Engineering", "engineering"),
				huh.NewOption("Flexible", "flexible"),
				huh.NewOption("Support", "support"),
			).
			Value(&e.MaterialClass),
	))
	if err := form.Run(); err != nil {
		return nil, err
	}
	e.Slug = catalog.Slugify(e.Material)
	return e, nil
}

func filamentForm(existing catalog.Entity) (catalog.Entity, error) {
	e, _ := existing.(catalog.Filament)
	density := formatFloat(e.Density)
	tolerance := formatFloat(e.DiameterTolerance)

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Filament name").Value(&e.Name).Validate(required("filament name")),
		huh.NewInput().Title("Density (g/cm³)").Value(&density).Validate(optionalFloat),
		huh.NewInput().Title("Diameter tolerance (mm)").Value(&tolerance).Validate(optionalFloat),
		huh.NewConfirm().Title("Discontinued?").Value(&e.Discontinued),
	))
	if err := form.Run(); err != nil {
		return nil, err
	}
	e.Density, _ = parseFloat(density)
	e.DiameterTolerance, _ = parseFloat(tolerance)
	e.Slug = catalog.Slugify(e.Name)
	return e, nil
}

func variantForm(existing catalog.Entity) (catalog.Entity, error) {
	e, _ := existing.(catalog.Variant)

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Color name").Value(&e.ColorName).Validate(required("color name")),
		huh.NewInput().Title("Color hex (e.g. #1A2B3C)").Value(&e.ColorHex).Validate(optionalHex),
		huh.NewConfirm().Title("Discontinued?").Value(&e.Discontinued),
	))
	if err := form.Run(); err != nil {
		return nil, err
	}
	e.Slug = catalog.Slugify(e.ColorName)
	return e, nil
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func optionalFloat(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
		return fmt.Errorf("not a number: %s", s)
	}
	return nil
}

func optionalHex(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if !strings.HasPrefix(s, "#") || (len(s) != 4 && len(s) != 7) {
		return fmt.Errorf("expected #RGB or #RRGGBB")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func formatFloat(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

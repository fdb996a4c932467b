// ABOUTME: Seed data used when the local store is empty
// ABOUTME: Provides a small default product catalog
package state

import "github.com/harperreed/polsync/models"

// SeedProducts is the default product catalog for a fresh install.
func SeedProducts() []models.Product {
	return []models.Product{
		{Name: "Term Life 20", Provider: "Acme Life", Type: models.TypeLife, DefaultTags: []string{"life", "term"}},
		{Name: "Whole Life Plus", Provider: "Acme Life", Type: models.TypeLife, DefaultTags: []string{"life", "whole"}},
		{Name: "MediShield Prime", Provider: "Beacon Health", Type: models.TypeMedical, DefaultTags: []string{"medical"}},
		{Name: "CritiCover Multi", Provider: "Beacon Health", Type: models.TypeCriticalIllness, DefaultTags: []string{"ci", "multipay"}},
		{Name: "DriveSafe Standard", Provider: "Concord General", Type: models.TypeAuto, DefaultTags: []string{"auto"}},
	}
}

// Seed returns the collections for a fresh install: no clients or
// policies, default product catalog.
func Seed() Collections {
	return Collections{Products: SeedProducts()}
}

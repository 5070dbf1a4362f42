// Package repository contains the persistence collaborators for catalogs.
// Implementations live in subpackages (file, sqlite, postgres, objectstore).
// Every implementation stores a whole collection per owner and overwrites it
// on each save; there is no incremental diff.
package repository

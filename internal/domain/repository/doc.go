// Package repository define las interfaces de repositorio de dominio.
//
// Estas interfaces representan contratos de negocio, independientes del
// almacenamiento subyacente. Las implementaciones concretas viven en
// internal/store/pg.
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Errores de dominio están en errors.go
//   - Los repositorios son snapshots read-mostly durante un request; el
//     flujo de autenticación nunca los muta
package repository

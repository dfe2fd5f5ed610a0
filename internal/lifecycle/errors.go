package lifecycle

import "errors"

var (
	// ErrModuleNotFound is returned when a (sprint, module type) row does not exist.
	ErrModuleNotFound = errors.New("module not found")
	// ErrModulesExist is returned by InitializeModules when rows are already present;
	// callers should regenerate instead.
	ErrModulesExist = errors.New("modules already initialized")
	// ErrModuleLocked is returned when completing a module the sprint's tier does not unlock.
	ErrModuleLocked = errors.New("module locked for this tier")
	// ErrConcurrencyConflict is returned when another writer changed the module set first.
	ErrConcurrencyConflict = errors.New("module set changed concurrently")
	ErrInvalidContent      = errors.New("analysis content must be non-null JSON")
)

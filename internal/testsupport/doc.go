// Package testsupport builds throwaway configs and projects for tests.
package testsupport

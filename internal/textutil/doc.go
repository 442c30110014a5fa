// Package textutil sanitizes titles and tokens for safe filesystem use.
package textutil

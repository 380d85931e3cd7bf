/*
Package config holds the immutable process configuration for BladeShare.

Configuration sources, in order of precedence:

 1. Environment variables (BLADESHARE_*) — highest, used for secrets
 2. YAML configuration file
 3. Built-in defaults

The resulting Configuration is validated once and then shared read-only by
every component. There is no runtime reconfiguration: the driver's
concurrency model depends on configuration never changing between calls.
*/
package config

// Package catalog loads the example compound categories offered from the
// menu. The default set is embedded; a YAML file with the same shape can
// replace it.
package catalog

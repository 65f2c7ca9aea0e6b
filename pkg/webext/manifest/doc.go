// Package manifest defines the Manifest V3 subset Veil understands and
// loads extension directories from disk.
//
// A manifest.json must declare manifest_version, name, and version; all
// other recognized fields have documented defaults and unknown fields are
// ignored. The Loader eagerly reads every js/css file a content_scripts
// rule declares so navigation-time composition never touches the file
// system. A declared file that cannot be read is logged and omitted from
// the loaded extension's source maps; the extension itself still loads.
package manifest

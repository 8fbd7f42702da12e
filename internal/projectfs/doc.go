// Package projectfs moves projects in and out of the virtual file store.
//
// Archives: zip (deflate via klauspost/compress), tar.gz and tar.zst.
// Manifests: a single document listing every file, as YAML, TOML or JSON.
// Directories: LoadDir reads a project tree from disk with fastwalk.
//
// Every file entering a project passes CheckContent: binary data is
// rejected by MIME sniffing and text that is not UTF-8 is rejected with
// the detected charset named.
package projectfs

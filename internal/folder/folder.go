// Package folder derives the one-level folder hierarchy of the files list.
//
// A folder is a file record whose title carries the folder marker. Files point at a
// folder through FolderID; folders never nest.
package folder

import (
	"sort"
	"strings"

	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
)

const Marker = "[folder] "

func IsFolder(f model.File) bool {
	return strings.HasPrefix(f.Title, Marker)
}

// Name is the display name of a folder (title without the marker).
func Name(f model.File) string {
	if IsFolder(f) {
		return strings.TrimSpace(strings.TrimPrefix(f.Title, Marker))
	}
	return f.Title
}

func FolderTitle(name string) string {
	return Marker + strings.TrimSpace(name)
}

type Folder struct {
	File     model.File   `json:"file"`
	Name     string       `json:"name"`
	Open     bool         `json:"open"`
	Children []model.File `json:"children"`
}

type Tree struct {
	Folders []Folder     `json:"folders"`
	Root    []model.File `json:"root"`
}

// FolderSet returns the ids of every folder record in files.
func FolderSet(files []model.File) map[string]bool {
	out := map[string]bool{}
	for _, f := range files {
		if IsFolder(f) {
			out[f.ID] = true
		}
	}
	return out
}

// Resolve returns the effective folder id of f: "" (root) when f is itself a folder or
// points at anything that is not a live folder.
func Resolve(f model.File, folders map[string]bool) string {
	if IsFolder(f) {
		return ""
	}
	id := strings.TrimSpace(f.FolderID)
	if id == "" || id == f.ID || !folders[id] {
		return ""
	}
	return id
}

// Build groups files under their folders. Input order is preserved within each list.
func Build(files []model.File, open OpenSet) Tree {
	folders := FolderSet(files)
	children := map[string][]model.File{}
	tree := Tree{Folders: []Folder{}, Root: []model.File{}}
	for _, f := range files {
		if IsFolder(f) {
			continue
		}
		if id := Resolve(f, folders); id != "" {
			children[id] = append(children[id], f)
			continue
		}
		tree.Root = append(tree.Root, f)
	}
	for _, f := range files {
		if !IsFolder(f) {
			continue
		}
		kids := children[f.ID]
		if kids == nil {
			kids = []model.File{}
		}
		tree.Folders = append(tree.Folders, Folder{File: f, Name: Name(f), Open: open.IsOpen(f.ID), Children: kids})
	}
	sort.SliceStable(tree.Folders, func(i, j int) bool {
		return strings.ToLower(tree.Folders[i].Name) < strings.ToLower(tree.Folders[j].Name)
	})
	return tree
}

// ValidateTarget reports whether fileID may be moved into folderID ("" = root).
func ValidateTarget(files []model.File, fileID, folderID string) error {
	var file *model.File
	isFolder := map[string]bool{}
	for i := range files {
		if files[i].ID == fileID {
			file = &files[i]
		}
		if IsFolder(files[i]) {
			isFolder[files[i].ID] = true
		}
	}
	if file == nil {
		return ErrUnknownFile
	}
	if IsFolder(*file) {
		return ErrNestedFolder
	}
	if folderID != "" && !isFolder[folderID] {
		return ErrNotAFolder
	}
	return nil
}

// OpenSet is the local, unpersisted open/closed state of folders.
type OpenSet map[string]bool

func (o OpenSet) IsOpen(id string) bool { return o != nil && o[id] }

func (o OpenSet) Toggle(id string) bool {
	if o[id] {
		delete(o, id)
		return false
	}
	o[id] = true
	return true
}

// Prune closes folders that no longer exist.
func (o OpenSet) Prune(folders map[string]bool) {
	for id := range o {
		if !folders[id] {
			delete(o, id)
		}
	}
}

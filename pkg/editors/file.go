package editors

import (
	"context"
	"slices"

	"github.com/pkg/errors"

	"github.com/stateful/embedkit/pkg/dispatch"
	"github.com/stateful/embedkit/pkg/document"
	"github.com/stateful/embedkit/pkg/embed"
)

var ErrFileIndex = errors.New("file index out of range")

// FileEditor edits the file list of a file block. Every change is written
// right away. Removing the last file removes the block.
type FileEditor struct {
	element
}

var _ dispatch.Component = (*FileEditor)(nil)

func NewFileEditor(env *Env, props dispatch.Props) (*FileEditor, error) {
	e := &FileEditor{element: newElement(env, props, "file")}
	if _, err := e.files(); err != nil {
		if !e.IsFirstEdit() {
			return nil, err
		}
	}
	return e, nil
}

func (e *FileEditor) Kind() dispatch.Kind { return dispatch.KindFile }

func (e *FileEditor) files() (embed.FileList, error) {
	d, err := embed.DecodeAs[*embed.FileEmbed](e.Data())
	if err != nil {
		return nil, err
	}
	return d.Files, nil
}

// Files returns the current file list.
func (e *FileEditor) Files() []embed.File {
	files, _ := e.files()
	return files
}

func (e *FileEditor) write(ctx context.Context, files embed.FileList) error {
	if len(files) == 0 {
		return e.Remove(ctx)
	}
	update, err := changes(e.Data(), &embed.FileEmbed{Files: files})
	if err != nil {
		return err
	}
	return e.save(ctx, update, nil)
}

func (e *FileEditor) Rename(ctx context.Context, index int, title string) error {
	files := slices.Clone(e.Files())
	if index < 0 || index >= len(files) {
		return errors.Wrapf(ErrFileIndex, "%d", index)
	}
	if title == "" {
		return errors.Wrap(embed.ErrInvalid, "file title is required")
	}
	files[index].Title = title
	return e.write(ctx, files)
}

func (e *FileEditor) RemoveFile(ctx context.Context, index int) error {
	files := slices.Clone(e.Files())
	if index < 0 || index >= len(files) {
		return errors.Wrapf(ErrFileIndex, "%d", index)
	}
	return e.write(ctx, slices.Delete(files, index, index+1))
}

// Move moves the file at from to index to.
func (e *FileEditor) Move(ctx context.Context, from, to int) error {
	files := slices.Clone(e.Files())
	if from < 0 || from >= len(files) || to < 0 || to >= len(files) {
		return errors.Wrapf(ErrFileIndex, "move %d to %d", from, to)
	}
	f := files[from]
	files = slices.Delete(files, from, from+1)
	files = slices.Insert(files, to, f)
	return e.write(ctx, files)
}

// AddFiles appends files and clears the first edit flag.
func (e *FileEditor) AddFiles(ctx context.Context, added ...embed.File) error {
	files := append(slices.Clone(e.Files()), added...)
	d := &embed.FileEmbed{Files: files}
	if err := embed.Validate(d); err != nil {
		return err
	}
	update, err := changes(e.Data(), d)
	if err != nil {
		return err
	}
	var firstEdit *bool
	if e.IsFirstEdit() {
		firstEdit = document.Bool(false)
	}
	return e.save(ctx, update, firstEdit)
}

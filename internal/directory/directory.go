// Package directory is a read-only view of the students, courses, exams and
// learning paths that certificates refer to. The records are owned by other
// systems; campus loads a JSON snapshot of them at startup.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"campus/pkg/platform/sentinel"
)

type Student struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Course struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Instructor string `json:"instructor"`
}

// Exam carries its course title and instructor denormalised.
type Exam struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Course     string `json:"course"`
	Instructor string `json:"instructor"`
}

type Path struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Seed is the on-disk snapshot format.
type Seed struct {
	Students      []Student `json:"students"`
	Courses       []Course  `json:"courses"`
	Exams         []Exam    `json:"exams"`
	LearningPaths []Path    `json:"learning_paths"`
}

// Directory answers lookups from an immutable snapshot. Unknown IDs return
// sentinel.ErrNotFound.
type Directory struct {
	students map[string]Student
	courses  map[string]Course
	exams    map[string]Exam
	paths    map[string]Path
}

func New(seed Seed) *Directory {
	d := &Directory{
		students: make(map[string]Student, len(seed.Students)),
		courses:  make(map[string]Course, len(seed.Courses)),
		exams:    make(map[string]Exam, len(seed.Exams)),
		paths:    make(map[string]Path, len(seed.LearningPaths)),
	}
	for _, s := range seed.Students {
		d.students[s.ID] = s
	}
	for _, c := range seed.Courses {
		d.courses[c.ID] = c
	}
	for _, e := range seed.Exams {
		d.exams[e.ID] = e
	}
	for _, p := range seed.LearningPaths {
		d.paths[p.ID] = p
	}
	return d
}

// Decode reads a Seed document.
func Decode(r io.Reader) (*Directory, error) {
	var seed Seed
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return nil, fmt.Errorf("decode directory seed: %w", err)
	}
	return New(seed), nil
}

// Load reads the seed file at path. An empty path yields an empty directory.
func Load(path string) (*Directory, error) {
	if path == "" {
		return New(Seed{}), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open directory seed: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

func (d *Directory) Student(_ context.Context, id string) (Student, error) {
	return lookup(d.students, id)
}

func (d *Directory) Course(_ context.Context, id string) (Course, error) {
	return lookup(d.courses, id)
}

func (d *Directory) Exam(_ context.Context, id string) (Exam, error) {
	return lookup(d.exams, id)
}

func (d *Directory) Path(_ context.Context, id string) (Path, error) {
	return lookup(d.paths, id)
}

func lookup[T any](m map[string]T, id string) (T, error) {
	if v, ok := m[id]; ok {
		return v, nil
	}
	var zero T
	return zero, sentinel.ErrNotFound
}

// Counts reports how many records of each kind are loaded.
func (d *Directory) Counts() map[string]int {
	return map[string]int{
		"students":       len(d.students),
		"courses":        len(d.courses),
		"exams":          len(d.exams),
		"learning_paths": len(d.paths),
	}
}

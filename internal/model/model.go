// Package model holds the typed schema of each stored collection and the
// coercion between stored documents and those types.
package model

import (
	"errors"
	"fmt"

	"rollcall/internal/store"
)

// ErrMalformed reports a stored document missing a field or holding the wrong type.
var ErrMalformed = errors.New("malformed document")

// Session is an administrator-defined course timeslot.
type Session struct {
	ID         string `json:"id"`
	CourseCode string `json:"courseCode"`
	CourseName string `json:"courseName"`
	Day        string `json:"day"`
	Time       string `json:"time"`
}

// Fields returns the stored body, without the id.
func (s Session) Fields() store.Fields {
	return store.Fields{
		"courseCode": s.CourseCode,
		"courseName": s.CourseName,
		"day":        s.Day,
		"time":       s.Time,
	}
}

// SessionFromDocument coerces a sessions document.
func SessionFromDocument(doc store.Document) (Session, error) {
	r := reader{doc: doc}
	s := Session{
		ID:         doc.ID,
		CourseCode: r.str("courseCode"),
		CourseName: r.str("courseName"),
		Day:        r.str("day"),
		Time:       r.str("time"),
	}
	return s, r.err
}

// StudentIdentity is an enrolled student. Only the identifier hash is stored.
type StudentIdentity struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	Matricule             string `json:"matricule"`
	IdentifierHash        string `json:"-"`
	FingerprintRegistered bool   `json:"fingerprintRegistered"`
}

func (s StudentIdentity) Fields() store.Fields {
	return store.Fields{
		"name":                   s.Name,
		"matricule":              s.Matricule,
		"fingerprintRegistered":  s.FingerprintRegistered,
		"hashedUniqueIdentifier": s.IdentifierHash,
	}
}

// StudentFromDocument coerces a students document.
func StudentFromDocument(doc store.Document) (StudentIdentity, error) {
	r := reader{doc: doc}
	s := StudentIdentity{
		ID:                    doc.ID,
		Name:                  r.str("name"),
		Matricule:             r.str("matricule"),
		IdentifierHash:        r.str("hashedUniqueIdentifier"),
		FingerprintRegistered: r.boolean("fingerprintRegistered"),
	}
	return s, r.err
}

// AttendanceRecord is one intake entry. CourseCode, CourseName, Day and Time
// are the session snapshot taken when the student opened the session.
type AttendanceRecord struct {
	ID          string `json:"id,omitempty"`
	StudentName string `json:"studentName"`
	Matricule   string `json:"matricule"`
	CourseCode  string `json:"courseCode"`
	CourseName  string `json:"courseName"`
	Day         string `json:"day"`
	Time        string `json:"time"`
	Date        string `json:"date"`
}

func (a AttendanceRecord) Fields() store.Fields {
	return store.Fields{
		"studentName": a.StudentName,
		"matricule":   a.Matricule,
		"courseCode":  a.CourseCode,
		"courseName":  a.CourseName,
		"day":         a.Day,
		"time":        a.Time,
		"date":        a.Date,
	}
}

// AttendanceFromDocument coerces an attendances document.
func AttendanceFromDocument(doc store.Document) (AttendanceRecord, error) {
	r := reader{doc: doc}
	a := AttendanceRecord{
		ID:          doc.ID,
		StudentName: r.str("studentName"),
		Matricule:   r.str("matricule"),
		CourseCode:  r.str("courseCode"),
		CourseName:  r.str("courseName"),
		Day:         r.str("day"),
		Time:        r.str("time"),
		Date:        r.str("date"),
	}
	return a, r.err
}

// Admin is an administrator account. PasswordHash is a bcrypt hash.
type Admin struct {
	ID           string `json:"id"`
	Name         string `json:"admin_name"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

func (a Admin) Fields() store.Fields {
	return store.Fields{
		"admin_name": a.Name,
		"username":   a.Username,
		"password":   a.PasswordHash,
	}
}

// AdminFromDocument coerces an admin document. admin_name may be absent.
func AdminFromDocument(doc store.Document) (Admin, error) {
	r := reader{doc: doc}
	a := Admin{
		ID:           doc.ID,
		Name:         r.optStr("admin_name"),
		Username:     r.str("username"),
		PasswordHash: r.str("password"),
	}
	return a, r.err
}

// reader records the first coercion failure.
type reader struct {
	doc store.Document
	err error
}

func (r *reader) fail(field, want string) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s: field %q is not a %s", ErrMalformed, r.doc.ID, field, want)
	}
}

func (r *reader) str(field string) string {
	v, ok := r.doc.Fields[field].(string)
	if !ok {
		r.fail(field, "string")
	}
	return v
}

func (r *reader) optStr(field string) string {
	raw, present := r.doc.Fields[field]
	if !present || raw == nil {
		return ""
	}
	v, ok := raw.(string)
	if !ok {
		r.fail(field, "string")
	}
	return v
}

func (r *reader) boolean(field string) bool {
	v, ok := r.doc.Fields[field].(bool)
	if !ok {
		r.fail(field, "bool")
	}
	return v
}

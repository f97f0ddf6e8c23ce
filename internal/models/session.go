package models

import "time"

// Profile holds the identity fields copied onto the remote user document.
type Profile struct {
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

// Session records the signed-in user on this device.
type Session struct {
	UID        string    `json:"uid"`
	Profile    Profile   `json:"profile"`
	SignedInAt time.Time `json:"signedInAt"`
}

// Bookmark is the last Quran position read.
type Bookmark struct {
	Surah     int       `json:"surah" firestore:"surah"`
	Ayah      int       `json:"ayah" firestore:"ayah"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
}

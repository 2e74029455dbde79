// Package contexthint gathers the facts about an archive that the
// generators use: its name, size and time, plus dates and author names
// found in the EXIF metadata of nearby photos.
package contexthint

package tagging

import (
	"strconv"
	"strings"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"

	"spotgrab/internal/models"
)

// embedFLAC replaces the Vorbis comment and picture blocks of a FLAC file.
func embedFLAC(path string, track models.TrackDescriptor, artwork []byte) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return tagError(path, err)
	}

	// Drop existing comment and picture blocks so tagging is a replace,
	// not an append.
	var kept []*flac.MetaDataBlock
	for _, block := range f.Meta {
		if block.Type != flac.VorbisComment && block.Type != flac.Picture {
			kept = append(kept, block)
		}
	}
	f.Meta = kept

	cmt := flacvorbis.New()
	addField(cmt, flacvorbis.FIELD_TITLE, track.Title)
	for _, artist := range track.Artists {
		addField(cmt, flacvorbis.FIELD_ARTIST, artist)
	}
	addField(cmt, flacvorbis.FIELD_ALBUM, track.Album)
	addField(cmt, "ALBUMARTIST", track.AlbumArtist)
	if track.TrackNumber > 0 {
		addField(cmt, flacvorbis.FIELD_TRACKNUMBER, strconv.Itoa(track.TrackNumber))
	}
	if track.DiscNumber > 0 {
		addField(cmt, "DISCNUMBER", strconv.Itoa(track.DiscNumber))
	}
	if track.ReleaseYear > 0 {
		addField(cmt, flacvorbis.FIELD_DATE, strconv.Itoa(track.ReleaseYear))
	}
	if len(track.Genres) > 0 {
		addField(cmt, "GENRE", strings.Join(track.Genres, "; "))
	}
	addField(cmt, "ISRC", track.ISRC)
	addField(cmt, "COMMENT", comment(track))

	cmtBlock := cmt.Marshal()
	f.Meta = append(f.Meta, &cmtBlock)

	if len(artwork) > 0 {
		picture, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "Cover", artwork, "image/jpeg")
		if err != nil {
			return tagError(path, err)
		}
		picBlock := picture.Marshal()
		f.Meta = append(f.Meta, &picBlock)
	}

	if err := f.Save(path); err != nil {
		return tagError(path, err)
	}
	return nil
}

// addField adds a Vorbis comment field, skipping empty values.
func addField(cmt *flacvorbis.MetaDataBlockVorbisComment, field, value string) {
	if value != "" {
		cmt.Add(field, value)
	}
}

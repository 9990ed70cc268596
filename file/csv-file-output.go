// Package file implements the rotating CSV writer used by the stage load
// pipe.
package file

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"regexp"

	"github.com/imfpipe/imfpipe/logger"
)

// CSVFileOutput writes CSV rows to OS files, rotating onto a new file when a
// row or byte limit is reached. Output may be gzip compressed.
type CSVFileOutput struct {
	log               logger.Logger
	dir               string // empty means a generated temp directory.
	prefix            string
	extension         string
	headerRecord      []string
	fileSeq           int
	currentName       string
	file              *os.File
	gzWriter          *gzip.Writer
	bufWriter         *bufio.Writer
	csvWriter         *csv.Writer
	useGzip           bool
	maxFileRows       int
	maxFileBytes      int
	rowsInFile        int
	bytesInFile       int
	rowsTotal         int
	rotatePending     bool
	fileOpen          bool
	csvOpen           bool
	wantHeaderRow     bool
	ListOfOutputFiles []string
}

// NewCSVFileOutput returns a rotating CSV writer. An empty outputDirectory
// means use a fresh temp directory. maxFileRows/maxFileBytes of 0 disable
// that rotation trigger; a byte limit forces a flush per row so the count is
// accurate, which costs throughput. useGzip compresses each file and forces a
// '.gz' extension.
func NewCSVFileOutput(log logger.Logger, outputDirectory string, fileNamePrefix string, fileNameExtension string, maxFileRows int, maxFileBytes int, useGzip bool) CSVFileOutput {
	out := CSVFileOutput{
		log:           log,
		dir:           outputDirectory,
		prefix:        fileNamePrefix,
		extension:     fileNameExtension,
		maxFileRows:   maxFileRows,
		maxFileBytes:  maxFileBytes,
		useGzip:       useGzip,
		rotatePending: true,
		wantHeaderRow: true,
	}
	if out.dir == "" {
		tmp, err := ioutil.TempDir("", "csv-output-")
		if err != nil {
			log.Panic("Error creating temp directory for CSV files.")
		}
		out.dir = tmp
	}
	if useGzip {
		// Normalise any supplied 'gz'/'gzip' extension down to '.gz'.
		r := regexp.MustCompile(`^(.*?)(\.*)(?i)(gzip|gz){0,}$`)
		out.extension = r.ReplaceAllString(out.extension, "$1.gz")
	}
	log.Debug("CSVFileOutput file prefix=", out.prefix, "; current suffix=", out.fileSeq, "; extension=", out.extension, "; maxFileRows=", out.maxFileRows, "; maxFileBytes=", out.maxFileBytes, "; useGzip=", out.useGzip)
	log.Trace("CSVFileOutput configured with parameters: ", out)
	return out
}

// Write implements io.Writer so the csv.Writer targets this struct; it counts
// bytes written and flags rotation when the byte limit is hit.
func (f *CSVFileOutput) Write(p []byte) (n int, err error) {
	f.log.Trace("Writing bytes...")
	if f.useGzip {
		n, err = f.bufWriter.Write(p)
	} else {
		n, err = f.file.Write(p)
	}
	f.bytesInFile += n
	f.log.Trace("bytesInFile = ", f.bytesInFile)
	if limitReached(f.log, f.maxFileBytes, f.bytesInFile) {
		f.rotatePending = true
	}
	return n, err
}

// SetHeader stores the header row written at the top of every created file.
func (f *CSVFileOutput) SetHeader(record []string) {
	f.headerRecord = record
}

// MustWriteToCSV writes one record, opening a new file first when rotation is
// due. It returns the new file's name when one was created, else "".
func (f *CSVFileOutput) MustWriteToCSV(record []string) (fileName string) {
	f.log.Trace("Writing record...", record)
	if f.rotatePending {
		f.closeCSVFileAndReset()
		f.openNextFile()
		fileName = f.file.Name()
		if f.wantHeaderRow && f.headerRecord != nil {
			f.log.Trace("Writing file header: ", f.headerRecord)
			if err := f.csvWriter.Write(f.headerRecord); err != nil {
				f.log.Panic("Unable to write header to CSV file.")
			}
		}
	}
	if err := f.csvWriter.Write(record); err != nil {
		f.log.Panic("Unable to write to CSV file.")
	}
	if f.maxFileBytes > 0 {
		// Flush per row so Write() sees the bytes and can trigger rotation.
		f.csvWriter.Flush()
	}
	f.rowsInFile++
	f.rowsTotal++
	if limitReached(f.log, f.maxFileRows, f.rowsInFile) {
		f.rotatePending = true
	}
	return
}

func limitReached(log logger.Logger, limit int, count int) bool {
	hit := limit > 0 && count >= limit
	log.Trace("limitReached(): ", hit)
	return hit
}

// Cleanup flushes the CSV writer and closes the OS file; defer it after
// construction.
func (f *CSVFileOutput) Cleanup() {
	f.closeCSVFileAndReset()
}

func (f *CSVFileOutput) flushAll() {
	f.csvWriter.Flush()
	if f.useGzip {
		if err := f.bufWriter.Flush(); err != nil {
			f.log.Panic(err)
		}
		if err := f.gzWriter.Flush(); err != nil {
			f.log.Panic(err)
		}
	}
}

func (f *CSVFileOutput) closeFile() {
	if f.useGzip { // the gzip stream must be closed before the file.
		if err := f.gzWriter.Close(); err != nil {
			f.log.Panic(err)
		}
	}
	if err := f.file.Close(); err != nil {
		f.log.Panic("unable to close OS file: ", f.currentName, "; ", err)
	}
}

// closeCSVFileAndReset finishes the current file, if any, and resets the
// counters so the next write opens a fresh file.
func (f *CSVFileOutput) closeCSVFileAndReset() {
	if f.csvOpen {
		f.flushAll()
		f.csvOpen = false
	}
	if f.fileOpen {
		f.closeFile()
		f.fileOpen = false
	}
	f.rotatePending = true
	f.rowsInFile = 0
	f.bytesInFile = 0
}

// openNextFile creates the next file in the rotation and wires up the CSV
// writer, optionally via a gzip stream.
func (f *CSVFileOutput) openNextFile() {
	f.advanceFileName()
	f.log.Info("Creating new CSV file '", f.currentName, "'")
	file, err := os.Create(f.currentName)
	if err != nil {
		f.log.Panic("Unable to create OS file with name: ", f.currentName)
	}
	f.file = file
	if f.useGzip {
		f.gzWriter = gzip.NewWriter(f.file)
		f.bufWriter = bufio.NewWriter(f.gzWriter) // all writes go via the gzip stream now.
	}
	f.fileOpen = true
	f.csvWriter = csv.NewWriter(f)
	f.csvOpen = true
	f.wantHeaderRow = true
	f.rotatePending = false
}

// advanceFileName bumps the rotation counter and records the new name in
// ListOfOutputFiles.
func (f *CSVFileOutput) advanceFileName() {
	f.fileSeq++
	f.currentName = path.Join(f.dir, fmt.Sprintf("%v_%06d.%v", f.prefix, f.fileSeq, f.extension))
	f.ListOfOutputFiles = append(f.ListOfOutputFiles, f.currentName)
}

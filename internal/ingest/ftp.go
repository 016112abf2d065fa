package ingest

import (
	"fmt"
	"io"
	"path"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jlaffaye/ftp"
)

// DropClient pulls vendor exports from an FTP drop directory. Vendors write
// logger files named after the source well (TR-<digits>) into the drop; the
// client fetches the ones not yet imported.
type DropClient struct {
	addr string
	user string
	pass string
	dir  string
}

func NewDropClient(addr, user, pass, dir string) *DropClient {
	if user == "" {
		user = "anonymous"
		pass = "anonymous"
	}
	return &DropClient{addr: addr, user: user, pass: pass, dir: dir}
}

// FetchNew retrieves every file in the drop directory that carries a well
// token and is not in the imported set. Transient failures are retried with
// exponential backoff.
func (c *DropClient) FetchNew(imported map[string]bool) ([]File, error) {
	var files []File

	operation := func() error {
		conn, err := ftp.Dial(c.addr, ftp.DialWithTimeout(30*time.Second))
		if err != nil {
			return fmt.Errorf("ftp dial: %w", err)
		}
		defer conn.Quit()

		if err := conn.Login(c.user, c.pass); err != nil {
			return backoff.Permanent(fmt.Errorf("ftp login: %w", err))
		}

		entries, err := conn.List(c.dir)
		if err != nil {
			return fmt.Errorf("ftp list %s: %w", c.dir, err)
		}

		files = files[:0]
		for _, entry := range entries {
			if entry.Type != ftp.EntryTypeFile {
				continue
			}
			if _, ok := WellToken(entry.Name); !ok {
				continue
			}
			if imported[entry.Name] {
				continue
			}

			resp, err := conn.Retr(path.Join(c.dir, entry.Name))
			if err != nil {
				return fmt.Errorf("ftp retr %s: %w", entry.Name, err)
			}
			data, err := io.ReadAll(resp)
			resp.Close()
			if err != nil {
				return fmt.Errorf("read %s: %w", entry.Name, err)
			}
			files = append(files, File{Name: entry.Name, Data: data})
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(operation, bo); err != nil {
		return nil, err
	}
	return files, nil
}

// Package persistence loads and saves queue configuration to a local JSON
// file, so the set of queues an operator created survives a restart.
package persistence

import (
	"encoding/json"
	"os"

	"github.com/sirupsen/logrus"

	"matchqueue/internal/tracker"
)

// Load reads queue descriptors from path and restores each into tr. A
// missing file is not an error: the tracker simply starts empty. A file
// that fails to parse is logged and treated the same way, so a corrupt
// state file never blocks startup. An individual descriptor naming an
// unknown matcher type is skipped with a warning rather than aborting
// the whole load.
func Load(path string, tr *tracker.Tracker) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.WithField("path", path).Info("persistence: no queue state file found, starting empty")
			return nil
		}
		return err
	}

	var descriptors []tracker.QueueDescriptor
	if err := json.Unmarshal(data, &descriptors); err != nil {
		logrus.WithError(err).WithField("path", path).Warn("persistence: queue state file is corrupt, starting empty")
		return nil
	}

	for _, d := range descriptors {
		if err := tr.RestoreQueue(d.Name, d.MatcherType, d.Settings); err != nil {
			logrus.WithError(err).WithField("queue", d.Name).Warn("persistence: skipping queue with unrecognized configuration")
			continue
		}
	}
	return nil
}

// Save snapshots every queue currently registered on tr and writes it to
// path. Failures are the caller's to log; Save itself only reports them.
func Save(path string, tr *tracker.Tracker) error {
	descriptors, err := tr.ExportDescriptors()
	if err != nil {
		return err
	}
	if descriptors == nil {
		descriptors = []tracker.QueueDescriptor{}
	}

	data, err := json.MarshalIndent(descriptors, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

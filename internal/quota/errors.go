package quota

import "errors"

var ErrFailedToRecordUsage = errors.New("failed to record usage")

package config

func (c *Config) Validate() error {
	if err := c.Run.Validate(); err != nil {
		return err
	}
	if err := c.Table.Validate(); err != nil {
		return err
	}
	if err := c.Workload.Validate(); err != nil {
		return err
	}
	return nil
}

func (c *RunConfig) Validate() error {
	return nil
}

func (c *TableConfig) Validate() error {
	if !knownHashers.Contains(c.Hasher) {
		return ErrUnknownHasher
	}
	if c.InitialSegmentSize < 0 {
		return ErrInvalidSegmentSize
	}
	return nil
}

func (c *WorkloadConfig) Validate() error {
	if c.Keys < 0 || c.Writers < 0 || c.Readers < 0 || c.DurationMs < 0 {
		return ErrInvalidWorkload
	}
	return nil
}

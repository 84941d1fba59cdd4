package station

// Frequencies below are expressed in units of the sampling frequency fs:
// a value v corresponds to v / sampleInterval Hz.

// channelGrid derives the fine channel frequencies and the coarse centre
// frequency belonging to each fine channel.
//
// Coarse channels of a real-sampled input tile [0, fs/2) with spacing
// 1/(2*nCoarse). Each selected coarse channel is split by the fine filter
// bank running at oversampling times the coarse spacing; the nKept central
// fine channels are kept, ordered by increasing frequency.
func channelGrid(nCoarse int, selected []int, oversampling float64, nFine, nKept int) (fine, coarse []float64) {
	coarseSpacing := 1 / (2 * float64(nCoarse))
	fineSpacing := coarseSpacing * oversampling / float64(nFine)

	fine = make([]float64, 0, len(selected)*nKept)
	coarse = make([]float64, 0, len(selected)*nKept)
	for _, ch := range selected {
		centre := float64(ch) * coarseSpacing
		for k := -nKept / 2; k < nKept-nKept/2; k++ {
			fine = append(fine, centre+float64(k)*fineSpacing)
			coarse = append(coarse, centre)
		}
	}
	return fine, coarse
}

// CoarseChannelSpacingInFs returns the spacing of adjacent coarse channels.
func (s *Station) CoarseChannelSpacingInFs() float64 {
	return 1 / (2 * float64(s.nCoarse))
}

// FineChannelSpacingInFs returns the spacing of adjacent fine channels
// within one coarse channel.
func (s *Station) FineChannelSpacingInFs() float64 {
	return s.CoarseChannelSpacingInFs() * s.oversampling / float64(s.nFine)
}

// FineChannelFrequenciesInFs returns the frequency of every kept fine
// channel. Repeated calls return identical values.
func (s *Station) FineChannelFrequenciesInFs() []float64 {
	return append([]float64(nil), s.fineFreq...)
}

// CoarseFrequencyOfFineChannelInFs returns, for every fine channel, the
// centre frequency of the coarse channel it belongs to. It has the same
// length as FineChannelFrequenciesInFs.
func (s *Station) CoarseFrequencyOfFineChannelInFs() []float64 {
	return append([]float64(nil), s.coarseOfFine...)
}

// FineChannelFrequenciesHz returns FineChannelFrequenciesInFs converted to Hz.
func (s *Station) FineChannelFrequenciesHz() []float64 {
	return s.toHz(s.fineFreq)
}

// CoarseFrequencyOfFineChannelHz returns CoarseFrequencyOfFineChannelInFs
// converted to Hz.
func (s *Station) CoarseFrequencyOfFineChannelHz() []float64 {
	return s.toHz(s.coarseOfFine)
}

// CoarseChannelOfFineChannel returns the selected coarse channel index
// (as configured) that fine channel i belongs to.
func (s *Station) CoarseChannelOfFineChannel(i int) int {
	return s.selected[i/s.nKept]
}

func (s *Station) toHz(inFs []float64) []float64 {
	out := make([]float64, len(inFs))
	for i, v := range inFs {
		out[i] = v / s.sampleInterval
	}
	return out
}

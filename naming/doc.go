// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*Package naming holds the file naming convention that connects the stages of
  the down-sampling pipeline.

  Stages never talk to each other in-process; stage N finds the output of stage
  N-1 only because both resolve the same (sample, fold, role) to the same path.
  Layout.Path is therefore a pure function of its arguments, and every stage
  must resolve paths through it.

  The package also parses the sample identifiers that the variant caller embeds
  in multi-sample VCF headers, e.g. "W6.12_f10".
*/
package naming

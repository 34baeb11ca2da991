/*Package interval provides 0-based half-open genomic intervals, the gene-span
  computation built on them, and RegionSet, a merged set of intervals used to
  restrict processing to parts of the genome given by a region string or a BED
  file.
  It assumes every position fits in a PosType, which is currently defined as
  int32 since that's what BAM files are limited to.
*/
package interval
